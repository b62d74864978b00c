// Package unqualify rewrites namespace-qualified React references in
// TypeScript and JavaScript sources into individually imported bindings:
//
//	import React from 'react';          import { useState } from 'react';
//	const [n] = React.useState(0);  →   const [n] = useState(0);
//
// # Pipeline
//
// Every file goes through the transform in package internal/transform:
//
//  1. Collect: parse with tree-sitter and gather the members reached
//     through the namespace identifier, split into values (React.useState,
//     <React.Fragment>) and types (React.ReactNode, React.FC<P>).
//  2. Synthesize: remove the default or namespace import of the module and
//     prepend one value import and one type-only import.
//  3. Rewrite: replace each qualified reference by the bare member name.
//
// Edits are byte ranges over the original text, so formatting and comments
// outside rewritten spans are preserved exactly.
//
// # Usage
//
//	e, err := unqualify.New(unqualify.WithWrite(true), unqualify.WithCache(".unqualify.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	results, err := e.TransformDirectory(ctx, "src")
//
// # Incremental Runs
//
// With [WithCache], outcomes are recorded in a SQLite ledger keyed by content
// hash. Files that were written, had nothing to rewrite, or were vetoed are
// skipped on later runs until their content changes. A change of namespace,
// module, import style or hook script discards the ledger.
//
// # Hooks
//
// [WithHook] names a Risor script run for every file with a rewrite. It sees
// file_path, language, value_members, type_members and rewrite_count, and
// vetoes the file by evaluating to a falsy value:
//
//	!(language == "javascript" && len(type_members) > 0)
package unqualify
