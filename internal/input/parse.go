package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxDocumentSize bounds the size of a document read from a stream.
const maxDocumentSize = 1 << 20

// ParseJSON reads a JSON assessment document.
func ParseJSON(r io.Reader) (Document, error) {
	decoder := json.NewDecoder(io.LimitReader(r, maxDocumentSize))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("failed to parse json document: %w", err)
	}
	return Decode(raw)
}

// ParseYAML reads a YAML assessment document.
func ParseYAML(content []byte) (Document, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return Document{}, fmt.Errorf("failed to parse yaml document: %w", err)
	}

	// the schema validator only knows json shaped values
	normalized, err := json.Marshal(raw)
	if err != nil {
		return Document{}, fmt.Errorf("failed to normalize yaml document: %w", err)
	}
	return ParseJSON(bytes.NewReader(normalized))
}

// ParseFile reads a document from disk, the format is picked from the file extension.
func ParseFile(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read assessment file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(bytes.NewReader(content))
	case ".yaml", ".yml":
		return ParseYAML(content)
	}
	return Document{}, fmt.Errorf("unsupported assessment file extension: %s", filepath.Ext(path))
}

// ParseForm reads a document from flattened form values such as
// "materials.0.quantity" or "transport.1.shares.road".
func ParseForm(values url.Values) (Document, error) {
	root := make(map[string]any)
	for key, vals := range values {
		if len(vals) == 0 || !isDocumentKey(key) {
			continue
		}
		if err := setPath(root, strings.Split(key, "."), vals[0]); err != nil {
			return Document{}, err
		}
	}
	return Decode(listify(root))
}

func isDocumentKey(key string) bool {
	section, _, _ := strings.Cut(key, ".")
	return slices.Contains([]string{"solar_percent", "materials", "processes", "transport"}, section)
}

func setPath(node map[string]any, path []string, value string) error {
	if len(path) == 1 {
		node[path[0]] = value
		return nil
	}

	child, found := node[path[0]]
	if !found {
		child = make(map[string]any)
		node[path[0]] = child
	}
	childMap, ok := child.(map[string]any)
	if !ok {
		return fmt.Errorf("form field %s conflicts with a value", strings.Join(path, "."))
	}
	return setPath(childMap, path[1:], value)
}

// listify turns maps keyed by indexes into lists ordered by index.
func listify(node any) any {
	m, ok := node.(map[string]any)
	if !ok {
		return node
	}

	indexes := make([]int, 0, len(m))
	for key, child := range m {
		m[key] = listify(child)
		if i, err := strconv.Atoi(key); err == nil && i >= 0 {
			indexes = append(indexes, i)
		}
	}
	if len(m) == 0 || len(indexes) != len(m) {
		return m
	}

	slices.Sort(indexes)
	list := make([]any, 0, len(indexes))
	for _, i := range indexes {
		list = append(list, m[strconv.Itoa(i)])
	}
	return list
}

// Values flattens the document into form values, the reverse of ParseForm.
func (doc Document) Values() url.Values {
	values := url.Values{}
	if doc.SolarPercent != "" {
		values.Set("solar_percent", string(doc.SolarPercent))
	}
	for i, m := range doc.Materials {
		prefix := "materials." + strconv.Itoa(i) + "."
		values.Set(prefix+"name", m.Name)
		values.Set(prefix+"quantity", string(m.Quantity))
		values.Set(prefix+"emission_factor", string(m.EmissionFactor))
	}
	for i, p := range doc.Processes {
		prefix := "processes." + strconv.Itoa(i) + "."
		values.Set(prefix+"name", p.Name)
		values.Set(prefix+"hours", string(p.Hours))
		values.Set(prefix+"kwh_per_hour", string(p.KWhPerHour))
	}
	for i, leg := range doc.Transport {
		prefix := "transport." + strconv.Itoa(i) + "."
		values.Set(prefix+"name", leg.Name)
		values.Set(prefix+"distance_miles", string(leg.DistanceMiles))
		values.Set(prefix+"payload_kg", string(leg.PayloadKg))
		for mode, share := range leg.Shares {
			values.Set(prefix+"shares."+mode, string(share))
		}
		for mode, factor := range leg.Factors {
			values.Set(prefix+"factors."+mode, string(factor))
		}
	}
	return values
}
