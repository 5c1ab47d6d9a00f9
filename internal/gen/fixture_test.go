package gen

import (
	"time"

	"schemadrift/internal/snapshot"
)

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Metadata: snapshot.Metadata{
			RunID:      "run-1",
			Source:     "fixture.yaml",
			AnalyzedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Categories: []*snapshot.Category{
			{
				Name:     "player_death",
				RowCount: 2,
				Fields: []snapshot.Field{
					{Name: "tick", Kind: snapshot.KindInteger},
					{Name: "user_name", Kind: snapshot.KindText},
					{Name: "headshot", Kind: snapshot.KindBoolean, Nullable: true},
					{Name: "distance", Kind: snapshot.KindFloat},
					{Name: "payload", Kind: snapshot.KindBinary},
					{Name: "mystery", Kind: snapshot.KindUnknown},
				},
			},
			{
				Name:     "round_start",
				RowCount: 1,
				Fields:   []snapshot.Field{{Name: "tick", Kind: snapshot.KindInteger}},
			},
			{Name: "round_end", Error: "fetch failed: boom"},
			{Name: "quiet"},
			{
				Name:      "server_info",
				WellKnown: true,
				RowCount:  1,
				Fields:    []snapshot.Field{{Name: "tick_interval", Kind: snapshot.KindFloat}},
			},
		},
		FieldCatalog: []string{"X", "m_iHealth", "CCSPlayerPawn.m_iHealth", "CCSPlayerPawn.m_vec", "team.name"},
		Header: []snapshot.HeaderEntry{
			{Key: "zz_custom", Kind: snapshot.KindInteger, Value: "1"},
			{Key: "addons", Kind: snapshot.KindText, Value: "a.b"},
			{Key: "map_name", Kind: snapshot.KindText, Value: "de_dust2"},
			{Key: "server_name", Kind: snapshot.KindText, Value: "local"},
		},
		Blobs: []snapshot.BlobCollection{
			{Name: "string_tables", Count: 2, TotalBytes: 10},
		},
	}
}
