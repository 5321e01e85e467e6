package dictionary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
	"github.com/japaniel/crosstem/pkg/inflection"
)

// edgeDoc is one neighbour inside a graph document.
type edgeDoc struct {
	POS       string `json:"pos"`
	Affix     string `json:"affix"`
	AffixType string `json:"affix_type,omitempty"`
}

// walkObject reads a JSON object from dec key by key. fn must consume the
// value that follows each key.
func walkObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	_, err = dec.Token()
	return err
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// ReadDerivationsJSON decodes a graph document of the form
//
//	{"organization": {"pos": "N",
//	                  "derives_to":   {"organizational": {"pos": "ADJ", "affix": "-al"}},
//	                  "derived_from": {"organize": {"pos": "V", "affix": "-ation"}}}}
//
// into a relation list. The document is streamed in order and relations are
// taken from the derived_from entries, so a graph rebuilt from the result
// has the same parent order as the document.
func ReadDerivationsJSON(r io.Reader) ([]derivation.Record, error) {
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<16))
	var out []derivation.Record

	err := walkObject(dec, func(word string) error {
		type parent struct {
			word string
			edge edgeDoc
		}
		var pos string
		var parents []parent

		err := walkObject(dec, func(field string) error {
			switch field {
			case "pos":
				return dec.Decode(&pos)
			case "derived_from":
				return walkObject(dec, func(p string) error {
					var e edgeDoc
					if err := dec.Decode(&e); err != nil {
						return err
					}
					parents = append(parents, parent{word: p, edge: e})
					return nil
				})
			default:
				return skipValue(dec)
			}
		})
		if err != nil {
			return err
		}
		for _, p := range parents {
			out = append(out, derivation.Record{
				SourceWord: p.word,
				TargetWord: word,
				SourcePOS:  p.edge.POS,
				TargetPOS:  pos,
				Affix:      p.edge.Affix,
				AffixType:  derivation.AffixType(p.edge.AffixType),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteDerivationsJSON writes g as a graph document, words and edges in
// graph order.
func WriteDerivationsJSON(w io.Writer, g *derivation.Graph) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("{")
	for i, word := range g.Words() {
		n, _ := g.Lookup(word)
		if i > 0 {
			bw.WriteString(",")
		}
		writeKey(bw, word)
		bw.WriteString(`{"pos":`)
		writeJSON(bw, n.POS())
		bw.WriteString(`,"derives_to":`)
		writeEdges(bw, n.DerivesTo())
		bw.WriteString(`,"derived_from":`)
		writeEdges(bw, n.DerivedFrom())
		bw.WriteString("}")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

func writeEdges(bw *bufio.Writer, edges []derivation.Edge) {
	bw.WriteString("{")
	for i, e := range edges {
		if i > 0 {
			bw.WriteString(",")
		}
		writeKey(bw, e.Word)
		writeJSON(bw, edgeDoc{POS: e.POS, Affix: e.Affix, AffixType: string(e.AffixType)})
	}
	bw.WriteString("}")
}

func writeKey(bw *bufio.Writer, key string) {
	writeJSON(bw, key)
	bw.WriteString(":")
}

// writeJSON marshals values that cannot fail to encode (strings and plain
// structs of strings).
func writeJSON(bw *bufio.Writer, v any) {
	b, _ := json.Marshal(v)
	bw.Write(b)
}

// ReadInflectionsJSON decodes an inflection document
//
//	{"run": {"pos": "V", "forms": {"ran": [{"pos": "V", "features": "V|PST", "segmentation": "ran"}]}}}
//
// into ordered rows.
func ReadInflectionsJSON(r io.Reader) ([]inflection.Entry, error) {
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<16))
	var out []inflection.Entry

	err := walkObject(dec, func(lemma string) error {
		return walkObject(dec, func(field string) error {
			if field != "forms" {
				return skipValue(dec)
			}
			return walkObject(dec, func(form string) error {
				var variants []inflection.Variant
				if err := dec.Decode(&variants); err != nil {
					return err
				}
				for _, v := range variants {
					out = append(out, inflection.Entry{
						Lemma:        lemma,
						Form:         form,
						POS:          v.POS,
						Features:     v.Features,
						Segmentation: v.Segmentation,
					})
				}
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteInflectionsJSON writes t as an inflection document in table order.
func WriteInflectionsJSON(w io.Writer, t *inflection.Table) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("{")

	var curLemma, curForm string
	var variants []inflection.Variant
	first := true
	flushForm := func() {
		if variants == nil {
			return
		}
		writeKey(bw, curForm)
		writeJSON(bw, variants)
		variants = nil
	}

	for _, e := range t.Entries() {
		if e.Lemma != curLemma || first {
			flushForm()
			if !first {
				bw.WriteString("}},")
			}
			first = false
			curLemma, curForm = e.Lemma, e.Form
			pos, _ := t.GetPOS(e.Lemma)
			writeKey(bw, e.Lemma)
			bw.WriteString(`{"pos":`)
			writeJSON(bw, pos)
			bw.WriteString(`,"forms":{`)
		} else if e.Form != curForm {
			flushForm()
			bw.WriteString(",")
			curForm = e.Form
		}
		variants = append(variants, inflection.Variant{POS: e.POS, Features: e.Features, Segmentation: e.Segmentation})
	}
	flushForm()
	if !first {
		bw.WriteString("}}")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// ReadEtymologyJSON streams a JSON array of etymology records.
func ReadEtymologyJSON(r io.Reader) ([]etymology.Record, error) {
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<16))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected array, got %v", tok)
	}
	var out []etymology.Record
	for dec.More() {
		var rec etymology.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteEtymologyJSON writes records as a JSON array, one record per line.
func WriteEtymologyJSON(w io.Writer, records []etymology.Record) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("[")
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if i > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
		// Encode appends a newline, which is valid whitespace here.
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	bw.WriteString("]\n")
	return bw.Flush()
}
