// Package dictionary reads and writes the datasets crosstem runs on:
// derivation graphs, inflection tables and etymology relations, as JSON
// documents in a data directory or as the upstream MorphyNet, UniMorph and
// Etymological Wordnet exports.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

// EtymologyFileName is the name of the etymology dataset inside a data directory.
const EtymologyFileName = "etymology.json"

// Dir is a data directory holding <code>_derivations.json,
// <code>_inflections.json and etymology.json. It implements
// derivation.Source, inflection.Source and etymology.Source.
type Dir struct {
	Path string
}

var (
	_ derivation.Source = Dir{}
	_ inflection.Source = Dir{}
	_ etymology.Source  = Dir{}
)

// DerivationsPath returns the derivation graph file for language.
func (d Dir) DerivationsPath(language string) string {
	return filepath.Join(d.Path, language+"_derivations.json")
}

// InflectionsPath returns the inflection table file for language.
func (d Dir) InflectionsPath(language string) string {
	return filepath.Join(d.Path, language+"_inflections.json")
}

// EtymologyPath returns the etymology dataset file.
func (d Dir) EtymologyPath() string {
	return filepath.Join(d.Path, EtymologyFileName)
}

// LoadDerivations reads language's derivation graph as an ordered relation list.
func (d Dir) LoadDerivations(ctx context.Context, language string) ([]derivation.Record, error) {
	var out []derivation.Record
	err := readFile(ctx, d.DerivationsPath(language), func(r io.Reader) error {
		var err error
		out, err = ReadDerivationsJSON(r)
		return err
	})
	return out, err
}

// LoadInflections reads language's inflection table.
func (d Dir) LoadInflections(ctx context.Context, language string) ([]inflection.Entry, error) {
	var out []inflection.Entry
	err := readFile(ctx, d.InflectionsPath(language), func(r io.Reader) error {
		var err error
		out, err = ReadInflectionsJSON(r)
		return err
	})
	return out, err
}

// LoadEtymology reads the etymology dataset.
func (d Dir) LoadEtymology(ctx context.Context) ([]etymology.Record, error) {
	var out []etymology.Record
	err := readFile(ctx, d.EtymologyPath(), func(r io.Reader) error {
		var err error
		out, err = ReadEtymologyJSON(r)
		return err
	})
	return out, err
}

func readFile(ctx context.Context, path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", crosstem.ErrDataNotFound, path)
		}
		return err
	}
	defer f.Close()

	if err := fn(&ctxReader{ctx: ctx, r: f}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", crosstem.ErrDataNotFound, path, err)
	}
	return nil
}

// ctxReader fails reads once ctx is done, so long decodes can be cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
