package profile

import (
	"encoding/json"
	"fmt"

	"github.com/aashkara-band/site-api/internal/domain"
)

// CurrentSchemaVersion is stamped on every persisted record. Records written before
// versioning existed carry no schemaVersion and are treated as version 0.
const CurrentSchemaVersion = 1

const schemaVersionField = "schemaVersion"

// migration upgrades a decoded record by one version in place.
type migration func(rec map[string]json.RawMessage, defaults domain.BandProfile) error

// migrations[i] upgrades a record from version i to i+1.
var migrations = []migration{
	backfillProjects,
}

// backfillProjects supplies the default projects to records from before the projects
// section existed. An explicitly empty list is kept.
func backfillProjects(rec map[string]json.RawMessage, defaults domain.BandProfile) error {
	if raw, ok := rec["projects"]; ok && string(raw) != "null" {
		return nil
	}
	b, err := json.Marshal(defaults.Projects)
	if err != nil {
		return err
	}
	rec["projects"] = b
	return nil
}

// decodeRecord parses a persisted record, runs every pending migration and returns the
// resulting profile.
func decodeRecord(raw string, defaults domain.BandProfile) (domain.BandProfile, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.BandProfile{}, fmt.Errorf("decode profile record: %w", err)
	}
	if rec == nil {
		return domain.BandProfile{}, fmt.Errorf("decode profile record: not an object")
	}

	version := 0
	if v, ok := rec[schemaVersionField]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return domain.BandProfile{}, fmt.Errorf("decode schemaVersion: %w", err)
		}
	}
	if version > CurrentSchemaVersion {
		return domain.BandProfile{}, fmt.Errorf("profile record schemaVersion %d is newer than supported %d", version, CurrentSchemaVersion)
	}
	for v := version; v < CurrentSchemaVersion; v++ {
		if err := migrations[v](rec, defaults); err != nil {
			return domain.BandProfile{}, fmt.Errorf("migrate profile record v%d->v%d: %w", v, v+1, err)
		}
	}
	delete(rec, schemaVersionField)

	b, err := json.Marshal(rec)
	if err != nil {
		return domain.BandProfile{}, err
	}
	var p domain.BandProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return domain.BandProfile{}, fmt.Errorf("decode profile fields: %w", err)
	}
	return p, nil
}

// encodeRecord serialises p with the current schema version.
func encodeRecord(p domain.BandProfile) (string, error) {
	b, err := json.Marshal(struct {
		SchemaVersion int `json:"schemaVersion"`
		domain.BandProfile
	}{CurrentSchemaVersion, p})
	if err != nil {
		return "", fmt.Errorf("encode profile record: %w", err)
	}
	return string(b), nil
}
