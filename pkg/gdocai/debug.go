package gdocai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var debugMarshal = protojson.MarshalOptions{Multiline: true, Indent: "  "}

// ToJSON renders a Document AI message as indented JSON
func ToJSON(m proto.Message) (string, error) {
	data, err := debugMarshal.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to convert API response to JSON: %w", err)
	}
	return string(data), nil
}

// SaveResponse writes the raw response for an image into dir as
// <image stem>.json and returns the path written.
func SaveResponse(dir, filename string, doc *documentaipb.Document) (string, error) {
	out, err := ToJSON(doc)
	if err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	p := filepath.Join(dir, stem+".json")
	if err := os.WriteFile(p, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("failed to write API response JSON: %w", err)
	}
	return p, nil
}
