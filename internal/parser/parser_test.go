package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesplice/codesplice/pkg/types"
)

func parseDoc(t *testing.T, p Parser, path, content string) *types.ParseResult {
	t.Helper()
	result, err := p.Parse(&types.Document{Path: path, Content: content})
	require.NoError(t, err)
	return result
}

func elementsByKind(result *types.ParseResult, kind types.ElementKind) []types.CodeElement {
	var out []types.CodeElement
	for _, el := range result.Elements {
		if el.Kind == kind {
			out = append(out, el)
		}
	}
	return out
}

func TestGoParser_FunctionsAndMethods(t *testing.T) {
	p := NewGoParser()
	defer p.Close()

	content := `package auth

import "fmt"

// Service authenticates users.
type Service struct {
	tokens map[string]string
}

// Login issues a token.
func (s *Service) Login(user string) string {
	return s.tokens[user]
}

func Hash(v string) string {
	return fmt.Sprintf("%x", v)
}
`
	result := parseDoc(t, p, "auth.go", content)

	classes := elementsByKind(result, types.ElementClass)
	require.Len(t, classes, 1)
	assert.Equal(t, "Service", classes[0].Name)
	assert.True(t, classes[0].HasDocumentation)
	assert.Equal(t, 5, classes[0].StartLine) // doc comment included in span

	methods := elementsByKind(result, types.ElementMethod)
	require.Len(t, methods, 1)
	assert.Equal(t, "Login", methods[0].Name)
	assert.Equal(t, "Service", methods[0].ParentName)

	funcs := elementsByKind(result, types.ElementFunction)
	require.Len(t, funcs, 1)
	assert.Equal(t, "Hash", funcs[0].Name)

	imports := result.Imports()
	require.Len(t, imports, 1)
	assert.Equal(t, 3, imports[0].StartLine)
}

func TestGoParser_SyntaxErrorIsStructural(t *testing.T) {
	p := NewGoParser()
	defer p.Close()

	_, err := p.Parse(&types.Document{Path: "bad.go", Content: "package broken\nfunc {{{"})
	require.Error(t, err)

	var serr *types.StructuralError
	assert.True(t, errors.As(err, &serr))
	assert.Equal(t, "bad.go", serr.Path)
}

func TestPythonParser_ClassWithMethods(t *testing.T) {
	p := NewPythonParser()
	defer p.Close()

	content := `"""User management module."""
import os
from typing import Optional


class UserStore:
    """Stores users in memory."""

    def __init__(self):
        self.users = {}

    def add(self, name):
        """Add a user."""
        self.users[name] = True


def main():
    store = UserStore()
`
	result := parseDoc(t, p, "users.py", content)

	require.NotNil(t, result.ModuleDoc)
	assert.Equal(t, 1, result.ModuleDoc.StartLine)

	imports := result.Imports()
	assert.Len(t, imports, 2)

	classes := elementsByKind(result, types.ElementClass)
	require.Len(t, classes, 1)
	cls := classes[0]
	assert.Equal(t, "UserStore", cls.Name)
	assert.True(t, cls.HasDocumentation)
	require.Len(t, cls.Children, 2)
	assert.Equal(t, "__init__", cls.Children[0].Name)
	assert.Equal(t, "add", cls.Children[1].Name)
	assert.Equal(t, "UserStore", cls.Children[1].ParentName)
	assert.True(t, cls.Children[1].HasDocumentation)

	funcs := elementsByKind(result, types.ElementFunction)
	require.Len(t, funcs, 1)
	assert.Equal(t, "main", funcs[0].Name)
}

func TestPythonParser_DecoratedFunctionSpanIncludesDecorator(t *testing.T) {
	p := NewPythonParser()
	defer p.Close()

	content := `import functools


@functools.cache
def expensive(n):
    return n * n
`
	result := parseDoc(t, p, "calc.py", content)

	funcs := elementsByKind(result, types.ElementFunction)
	require.Len(t, funcs, 1)
	assert.Equal(t, "expensive", funcs[0].Name)
	assert.Equal(t, 4, funcs[0].StartLine)
}

func TestPythonParser_MalformedInput(t *testing.T) {
	p := NewPythonParser()
	defer p.Close()

	_, err := p.Parse(&types.Document{Path: "bad.py", Content: "def broken(:\n    pas"})
	var serr *types.StructuralError
	assert.True(t, errors.As(err, &serr))
}

func TestCSharpParser_NamespaceAndClass(t *testing.T) {
	p := NewCSharpParser()
	defer p.Close()

	content := `using System;
using System.Collections.Generic;

namespace Billing.Core
{
    /// <summary>Computes invoice totals.</summary>
    public class InvoiceCalculator
    {
        public decimal Total(List<decimal> items)
        {
            return items.Sum();
        }

        private decimal Tax(decimal amount)
        {
            return amount * 0.2m;
        }
    }
}
`
	result := parseDoc(t, p, "invoice.cs", content)

	assert.Len(t, result.Imports(), 2)

	classes := elementsByKind(result, types.ElementClass)
	require.Len(t, classes, 1)
	cls := classes[0]
	assert.Equal(t, "InvoiceCalculator", cls.Name)
	assert.Equal(t, "Billing.Core", cls.ParentName)
	assert.True(t, cls.HasDocumentation)
	require.Len(t, cls.Children, 2)
	assert.Equal(t, "Total", cls.Children[0].Name)
	assert.Equal(t, "InvoiceCalculator", cls.Children[0].ParentName)
}

func TestJavaScriptParser_ClassesAndArrowFunctions(t *testing.T) {
	p := NewJavaScriptParser()
	defer p.Close()

	content := `import { api } from "./api";

/** Client for the session service. */
export class SessionClient {
  constructor(url) {
    this.url = url;
  }

  connect() {
    return api.open(this.url);
  }
}

export const retry = (fn) => {
  return fn();
};
`
	result := parseDoc(t, p, "session.js", content)

	assert.Len(t, result.Imports(), 1)

	classes := elementsByKind(result, types.ElementClass)
	require.Len(t, classes, 1)
	assert.Equal(t, "SessionClient", classes[0].Name)
	assert.True(t, classes[0].HasDocumentation)
	require.Len(t, classes[0].Children, 2)
	assert.Equal(t, "connect", classes[0].Children[1].Name)

	funcs := elementsByKind(result, types.ElementFunction)
	require.Len(t, funcs, 1)
	assert.Equal(t, "retry", funcs[0].Name)
}

func TestTypeScriptParser_Interfaces(t *testing.T) {
	p := NewTypeScriptParser()
	defer p.Close()

	content := `export interface Job {
  id: string;
  run(): Promise<void>;
}

export function schedule(job: Job): void {
  job.run();
}
`
	result := parseDoc(t, p, "job.ts", content)

	classes := elementsByKind(result, types.ElementClass)
	require.Len(t, classes, 1)
	assert.Equal(t, "Job", classes[0].Name)

	funcs := elementsByKind(result, types.ElementFunction)
	require.Len(t, funcs, 1)
	assert.Equal(t, "schedule", funcs[0].Name)
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, p := range []Parser{NewGoParser(), NewPythonParser(), NewJavaScriptParser()} {
		_, err := p.Parse(&types.Document{Path: "empty"})
		var serr *types.StructuralError
		assert.True(t, errors.As(err, &serr))
		p.Close()
	}
}
