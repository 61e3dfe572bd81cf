package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"
	"gopkg.in/yaml.v3"
)

// readDocument loads a JSON or YAML file ("-" for stdin) as generic data.
// JSON is a subset of YAML, so one decoder handles both.
func readDocument(path string) (any, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse %s: empty document", path)
	}
	return doc, nil
}

// decodeInto re-encodes generic data as JSON so the json tags of v apply
// to YAML input as well.
func decodeInto(doc any, v any) error {
	js, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(js, v)
}

func readInto(path string, v any) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if err := decodeInto(doc, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeOutput renders v as json, yaml or pretty (Go syntax).
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// go through JSON to keep the snake_case field names
		js, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(js, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case "pretty":
		_, err := pretty.Fprintf(w, "%# v\n", v)
		return err
	}
	return fmt.Errorf("unknown format %q (json, yaml, pretty)", format)
}
