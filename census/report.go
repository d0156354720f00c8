package census

import (
	"fmt"
	"os"
	"time"

	"facette.io/natsort"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"

	"github.com/moveonly/anykit/lazy"
)

// Entry is one (catalog, type) line of a report.
type Entry struct {
	Catalog  string `yaml:"catalog"`
	Type     string `yaml:"type"`
	Tag      string `yaml:"tag"`
	Created  int64  `yaml:"created"`
	Released int64  `yaml:"released"`
	Live     int64  `yaml:"live"`
}

// Report is a point-in-time snapshot of every stored object population the
// tracker has seen, leaking or not.
type Report struct {
	ID      string    `yaml:"id"`
	Host    string    `yaml:"host"`
	TakenAt time.Time `yaml:"taken_at"`
	Live    int64     `yaml:"live"`
	Entries []Entry   `yaml:"entries"`
}

// Report takes a snapshot of all entries, in natural order.
func (t *Tracker) Report() Report {
	return Report{
		ID:      "census-" + uuid.New().String(),
		Host:    hostname.Get(),
		TakenAt: time.Now().UTC(),
		Live:    t.live.Load(),
		Entries: t.snapshot(false),
	}
}

// YAML renders the report for logs and bug reports.
func (r Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// snapshot collects entries under the read lock and orders them naturally by
// catalog, then by type, so that report diffs stay stable between runs. The
// two levels are kept apart; a catalog name is an arbitrary client string
// and may itself contain any separator.
func (t *Tracker) snapshot(onlyLive bool) []Entry {
	t.mu.RLock()

	total := 0
	grouped := make(map[string]map[string]Entry, len(t.entries))

	for k, e := range t.entries {
		created := e.created.Load()
		released := e.released.Load()
		live := created - released

		if onlyLive && live <= 0 {
			continue
		}

		types, ok := grouped[k.catalog]
		if !ok {
			types = make(map[string]Entry)
			grouped[k.catalog] = types
		}

		types[k.typeName] = Entry{
			Catalog:  k.catalog,
			Type:     k.typeName,
			Tag:      typeTag(k.typeName),
			Created:  created,
			Released: released,
			Live:     live,
		}
		total++
	}

	t.mu.RUnlock()

	catalogs := make([]string, 0, len(grouped))
	for catalog := range grouped {
		catalogs = append(catalogs, catalog)
	}

	natsort.Sort(catalogs)

	entries := make([]Entry, 0, total)

	for _, catalog := range catalogs {
		types := make([]string, 0, len(grouped[catalog]))
		for typeName := range grouped[catalog] {
			types = append(types, typeName)
		}

		natsort.Sort(types)

		for _, typeName := range types {
			entries = append(entries, grouped[catalog][typeName])
		}
	}

	return entries
}

// typeTag derives a short stable tag from a type display name, so that
// reports can be grepped and correlated across runs and binaries.
func typeTag(typeName string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(typeName))
}

// hostname will hold, in a k8s deployment context, the pod name. For local
// development it will be the local machine name.
var hostname = lazy.New[string](func() string { //nolint:gochecknoglobals
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}

	return h
})
