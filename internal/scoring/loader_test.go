package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestLoadRoundTrip(t *testing.T) {
	table := Defaults()
	table.Version = "override-1"
	table.Base[contracts.EventFDAApproval] = 90

	data, err := yaml.Marshal(table)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "override-1", loaded.Version)
	assert.Equal(t, 90, loaded.Base[contracts.EventFDAApproval])
	assert.Equal(t, table.Confidence, loaded.Confidence)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	content := "version: bad\nbase_scoresX:\n  sec_8k: 55\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err, "typoed keys must not be silently dropped")
}

func TestLoadRejectsIncompleteTable(t *testing.T) {
	table := Defaults()
	delete(table.Base, contracts.EventSEC8K)

	data, err := yaml.Marshal(table)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_scores")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestHashIsDeterministic(t *testing.T) {
	first, err := Hash(Defaults())
	require.NoError(t, err)
	second, err := Hash(Defaults())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	changed := Defaults()
	changed.Base[contracts.EventSEC8K] = 56
	other, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestValidateCatchesBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FactorTable)
		field  string
	}{
		{"score above range", func(ft *FactorTable) { ft.Base[contracts.EventSEC8K] = 101 }, "base_scores"},
		{"negative score", func(ft *FactorTable) { ft.Base[contracts.EventSEC8K] = -1 }, "base_scores"},
		{"unknown direction", func(ft *FactorTable) { ft.Polarity[contracts.EventSEC8K] = "sideways" }, "polarity"},
		{"confidence above one", func(ft *FactorTable) { ft.Confidence[contracts.EventSEC8K] = 1.5 }, "confidence"},
		{"multiplier above cap", func(ft *FactorTable) {
			ft.SectorFamilyMultipliers["biotech"]["fda"] = 2.5
		}, "sector_family_multipliers"},
		{"unknown family", func(ft *FactorTable) {
			ft.SectorFamilyMultipliers["biotech"]["weather"] = 1.1
		}, "sector_family_multipliers"},
		{"cap below per-hit", func(ft *FactorTable) {
			ft.Duplicate.Cap = 4
		}, "duplicate"},
		{"inverted beta bands", func(ft *FactorTable) {
			ft.Beta.MidThreshold = 1.5
		}, "beta"},
		{"negative atr bonus", func(ft *FactorTable) { ft.ATR.MaxBonus = -1 }, "atr"},
		{"inverted regime bands", func(ft *FactorTable) {
			ft.Regime.MildMovePct = 4.0
		}, "regime"},
		{"missing-data penalty above one", func(ft *FactorTable) { ft.MissingDataPenalty = 1.5 }, "missing_data_penalty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Defaults()
			tt.mutate(table)

			err := Validate(table)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
