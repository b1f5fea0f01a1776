// Package chunker turns documents into embedding-ready chunks.
//
// Source files are chunked along the element tree their parser produces:
// import blocks, classes, functions, and methods each become chunks carrying
// symbol and line metadata. Files the parsers cannot handle, and file types
// with no parser at all, fall back to a sliding-window splitter whose output
// can be reconstructed into the original content. Documentation files are
// split along markdown structure. An enforcer caps every chunk at a hard
// character ceiling regardless of which chunker produced it.
package chunker
