// Package types provides shared type definitions for the codesplice
// chunking and batch-planning core.
//
// # Core Types
//
// Document is the immutable input supplied by the upstream repository
// loader:
//
//	doc := &types.Document{
//	    Path:    "pkg/auth/service.py",
//	    Content: source,
//	}
//
// CodeElement is a node in the element tree a structural parser produces;
// class elements carry their methods as children:
//
//	elem := types.CodeElement{
//	    Kind:      types.ElementClass,
//	    Name:      "AuthService",
//	    StartLine: 12,
//	    EndLine:   96,
//	}
//
// Chunk is the unit of embedding and retrieval:
//
//	chunk := &types.Chunk{
//	    Text: classBody,
//	    Metadata: types.ChunkMetadata{
//	        ChunkType:  types.ChunkClass,
//	        SymbolName: "AuthService",
//	        Language:   types.LangPython,
//	        LineStart:  12,
//	        LineEnd:    96,
//	    },
//	}
//
// Batch groups chunks under a token ceiling for dispatch to the embedding
// collaborator.
//
// # Error Types
//
// StructuralError is the typed result of a failed structural parse; chunkers
// branch on it with errors.As and delegate the whole document to fallback
// chunking. ErrTokenLimitExceeded is the one collaborator error the batch
// planner treats as retryable.
package types
