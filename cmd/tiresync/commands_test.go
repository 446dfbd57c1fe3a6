package main

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRootCommandWiring(t *testing.T) {
	c := qt.New(t)
	root := newRootCommand()

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"all", "one", "status", "import"} {
		c.Assert(names[want], qt.IsTrue, qt.Commentf("missing subcommand %s", want))
	}

	all, _, err := root.Find([]string{"all"})
	c.Assert(err, qt.IsNil)
	tiresOnly := all.Flags().Lookup("tires-only")
	c.Assert(tiresOnly, qt.IsNotNil)
	c.Assert(tiresOnly.DefValue, qt.Equals, "true")
}

func TestOneRequiresID(t *testing.T) {
	c := qt.New(t)
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"one", "--id", "abc"})

	err := root.Execute()
	c.Assert(err, qt.ErrorMatches, "--id must be a positive integer")
}

func TestImportRequiresFile(t *testing.T) {
	c := qt.New(t)
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"import"})

	err := root.Execute()
	c.Assert(err, qt.ErrorMatches, "--file is required")
}
