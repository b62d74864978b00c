package unqualify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// benchSource is a realistic component file mixing hooks, types, generic
// arguments and markup.
const benchSource = `'use client';

import * as React from 'react';
import { cx } from './cx';

export interface ListProps<T> extends React.PropsWithChildren<{ items: T[] }> {
  render: (item: T) => React.ReactNode;
  ref?: React.Ref<HTMLUListElement>;
}

export function List<T>(props: ListProps<T>): React.ReactElement {
  const [selected, setSelected] = React.useState<number | null>(null);
  const items = React.useMemo(() => props.items.slice(), [props.items]);
  const onClick = React.useCallback((i: number) => setSelected(i), []);
  React.useEffect(() => {
    if (selected !== null && selected >= items.length) {
      setSelected(null);
    }
  }, [items, selected]);

  return (
    <React.Fragment>
      <ul className={cx('list')}>
        {items.map((item, i) => (
          <li key={i} onClick={() => onClick(i)}>
            {props.render(item)}
          </li>
        ))}
      </ul>
      <React.Suspense fallback={null}>{props.children}</React.Suspense>
    </React.Fragment>
  );
}

export const Empty: React.FC = () => null;
`

func writeBenchFiles(b *testing.B, n int) []string {
	b.Helper()
	dir := b.TempDir()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("List%03d.tsx", i))
		if err := os.WriteFile(paths[i], []byte(benchSource), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return paths
}

func BenchmarkTransformSource(b *testing.B) {
	e, err := New()
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	ctx := context.Background()
	src := []byte(benchSource)

	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.TransformSource(ctx, "List.tsx", src); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkTransformFiles(b *testing.B, parallel bool) {
	paths := writeBenchFiles(b, 50)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		e, err := New(WithCache(filepath.Join(b.TempDir(), "bench.db")), WithParallel(parallel))
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()

		if _, err := e.TransformFiles(ctx, paths); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

func BenchmarkTransformFiles_Serial(b *testing.B) {
	benchmarkTransformFiles(b, false)
}

func BenchmarkTransformFiles_Parallel(b *testing.B) {
	benchmarkTransformFiles(b, true)
}
