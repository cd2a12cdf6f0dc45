package candidates

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Record is the msgpack shape of one candidate.
type Record struct {
	Value string `msgpack:"v"`
	Photo string `msgpack:"p,omitempty"`
}

// tomlFile is the TOML shape: a plain values array, detailed tables, or both.
type tomlFile struct {
	Values    []string `toml:"values"`
	Candidate []struct {
		Value string `toml:"value"`
		Photo string `toml:"photo"`
	} `toml:"candidate"`
}

// ReadFile reads a candidate file in any supported format.
// Values are cleaned, invalid ones skipped and duplicates dropped, first spelling wins.
func ReadFile(path string) ([]trigger.Candidate, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate file %s: %w", path, err)
	}
	defer f.Close()

	var raw []trigger.Candidate
	switch format {
	case FormatText:
		raw, err = readText(f)
	case FormatTOML:
		raw, err = readTOML(f)
	case FormatMsgpack:
		raw, err = readMsgpack(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s as %s: %w", path, format, err)
	}

	list := Merge(raw)
	log.Debugf("Read %d candidates from %s (%d raw)", len(list), path, len(raw))
	return list, nil
}

func readText(r io.Reader) ([]trigger.Candidate, error) {
	var out []trigger.Candidate
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if utils.IsCommentLine(line) {
			continue
		}
		value, photo, _ := strings.Cut(line, "\t")
		out = append(out, trigger.Candidate{Value: value, Photo: strings.TrimSpace(photo)})
	}
	return out, scanner.Err()
}

func readTOML(r io.Reader) ([]trigger.Candidate, error) {
	var file tomlFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, err
	}
	out := make([]trigger.Candidate, 0, len(file.Values)+len(file.Candidate))
	for _, v := range file.Values {
		out = append(out, trigger.Candidate{Value: v})
	}
	for _, c := range file.Candidate {
		out = append(out, trigger.Candidate{Value: c.Value, Photo: c.Photo})
	}
	return out, nil
}

func readMsgpack(r io.Reader) ([]trigger.Candidate, error) {
	var records []Record
	if err := msgpack.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	out := make([]trigger.Candidate, len(records))
	for i, rec := range records {
		out[i] = trigger.Candidate{Value: rec.Value, Photo: rec.Photo}
	}
	return out, nil
}

// WriteMsgpack encodes candidates in the msgpack candidate format.
func WriteMsgpack(w io.Writer, list []trigger.Candidate) error {
	records := make([]Record, len(list))
	for i, c := range list {
		records[i] = Record{Value: c.Value, Photo: c.Photo}
	}
	return msgpack.NewEncoder(w).Encode(records)
}

// Merge concatenates lists in order, cleaning values and dropping invalid
// entries and case-insensitive duplicates.
func Merge(lists ...[]trigger.Candidate) []trigger.Candidate {
	size := 0
	for _, l := range lists {
		size += len(l)
	}
	dedupe := utils.NewDeduper(size)
	out := make([]trigger.Candidate, 0, size)
	for _, l := range lists {
		for _, c := range l {
			c.Value = utils.CleanValue(c.Value)
			if !utils.IsValidValue(c.Value) || !dedupe.ShouldInclude(c.Value) {
				continue
			}
			out = append(out, c)
		}
	}
	if n := dedupe.Dropped(); n > 0 {
		log.Debugf("Dropped %d duplicate candidates", n)
	}
	return out
}
