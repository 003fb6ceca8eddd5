package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBatchSize is the insert batch size used when runtime.batch_size is
// unset.
const DefaultBatchSize = 5000

// Default returns the built-in build configuration: tab-delimited source
// files under ./actuarial_tables, the six published products, artifacts next
// to the sources and a replaced pricing.db SQLite file.
func Default() Build {
	return Build{
		Job: "ratetables",
		Sources: Sources{
			Dir: "actuarial_tables",
			Parser: Parser{
				Kind:    "csv",
				Options: Options{"comma": "\t"},
			},
			Files: DefaultSourceFiles(),
		},
		Products:  DefaultProducts(),
		Artifacts: Artifacts{Dir: "actuarial_tables"},
		Storage: Storage{
			Kind: "sqlite",
			DB:   DBConfig{DSN: "pricing.db", Replace: true},
		},
		Runtime: RuntimeConfig{Workers: 1, BatchSize: DefaultBatchSize},
	}
}

// DefaultSourceFiles returns the conventional source file names.
func DefaultSourceFiles() SourceFiles {
	return SourceFiles{
		RateDescription: "RateDescriptionTable.txt",
		PremiumRate:     "PremiumRateTable.txt",
		Band:            "BandTable.txt",
		ModalProfile:    "ModalProfileTable.txt",
		CashValue:       "CashValueRateTable.txt",
	}
}

// DefaultProducts returns the published products and their minimum face
// amounts.
func DefaultProducts() []Product {
	return []Product{
		{PlanCode: "ula20", MinimumFaceAmount: 100000},
		{PlanCode: "ula20m", MinimumFaceAmount: 100000},
		{PlanCode: "ull20", MinimumFaceAmount: 100000},
		{PlanCode: "ull20m", MinimumFaceAmount: 100000},
		{PlanCode: "w19gnc", MinimumFaceAmount: 1000},
		{PlanCode: "w19mtc", MinimumFaceAmount: 1000},
	}
}

// Load reads a build file. The format follows the extension: .yaml/.yml is
// YAML, anything else JSON. Fields absent from the file keep their Default()
// values. A path that does not exist yields Default() and found=false.
func Load(path string) (b Build, found bool, err error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return Build{}, false, fmt.Errorf("read config %s: %w", path, err)
	}
	b, err = Decode(bytes.NewReader(raw), formatOf(path))
	if err != nil {
		return Build{}, true, fmt.Errorf("decode config %s: %w", path, err)
	}
	return b, true, nil
}

// Format is the encoding of a build file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode decodes a build document over Default(). Unknown fields are errors.
// A products list in the document replaces the default list wholesale.
func Decode(r io.Reader, f Format) (Build, error) {
	b := Default()
	b.Products = nil

	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
			return Build{}, err
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
			return Build{}, err
		}
	}

	if b.Products == nil {
		b.Products = DefaultProducts()
	}
	if b.Sources.Parser.Options == nil {
		b.Sources.Parser.Options = Options{}
	}
	return b, nil
}
