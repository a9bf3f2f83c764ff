package kernel

import _ "embed"

// obj is the compiled kernel object produced by the build pipeline from
// bpf/agent.bpf.c (clang -target bpf, then bpf2go-style stripping). Its
// generation is an external collaborator per spec.md §1 — this package only
// ever treats it as an opaque blob handed to ebpf.LoadCollectionSpecFromReader.
//
//go:embed bpf/out/agent.o
var obj []byte
