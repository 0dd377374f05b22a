package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveStaff_CreatesNewFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	staff := []StaffConfig{
		{Name: "青木", Color: "#FF0000", BlockedWeekdays: []string{"土", "日"}},
	}

	err := SaveStaff(configPath, staff)
	require.NoError(t, err)

	// Verify file exists
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	// Verify content
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: 青木")
	assert.Contains(t, string(data), `color: "#FF0000"`)
	assert.Contains(t, string(data), "blocked_weekdays: [土, 日]")
}

func TestSaveStaff_PreservesOtherConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	// Create initial config with various settings
	initial := `auto_reload: true
# staffing knobs
schedule:
  min_rest_gap: 3
ui:
  show_counts: false
`
	err := os.WriteFile(configPath, []byte(initial), 0644)
	require.NoError(t, err)

	err = SaveStaff(configPath, []StaffConfig{{Name: "馬場"}})
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "auto_reload: true")
	assert.Contains(t, content, "# staffing knobs")
	assert.Contains(t, content, "min_rest_gap: 3")
	assert.Contains(t, content, "show_counts: false")
	// And the staff are there
	assert.Contains(t, content, "name: 馬場")
}

func TestSaveStaff_WritesBackup(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte("auto_reload: false\n"), 0644))
	require.NoError(t, SaveStaff(configPath, []StaffConfig{{Name: "青木"}}))

	backup, err := os.ReadFile(configPath + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "auto_reload: false\n", string(backup))
}

func TestSaveStaff_Roundtrip(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	inactive := false
	original := []StaffConfig{
		{Name: "青木", Color: "#10B981", BlockedWeekdays: []string{"日"}},
		{Name: "馬場", Active: &inactive},
	}

	err := SaveStaff(configPath, original)
	require.NoError(t, err)

	// Load back using Viper
	v := viper.New()
	v.SetConfigFile(configPath)
	err = v.ReadInConfig()
	require.NoError(t, err)

	var loaded []StaffConfig
	err = v.UnmarshalKey("staff", &loaded)
	require.NoError(t, err)

	require.Len(t, loaded, 2)
	assert.Equal(t, "青木", loaded[0].Name)
	assert.Equal(t, "#10B981", loaded[0].Color)
	assert.Equal(t, []string{"日"}, loaded[0].BlockedWeekdays)
	assert.True(t, loaded[0].IsActive())

	assert.Equal(t, "馬場", loaded[1].Name)
	assert.False(t, loaded[1].IsActive())
}

func TestSaveRules_Roundtrip(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	original := RulesConfig{
		Fixed:     []RuleConfig{{Staff: "青木", Week: 1, Weekday: 4}},
		Vacations: []RuleConfig{{Staff: "馬場", Week: 5, Weekday: 0}},
	}

	err := SaveRules(configPath, original)
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var loaded RulesConfig
	require.NoError(t, v.UnmarshalKey("rules", &loaded))

	require.Len(t, loaded.Fixed, 1)
	assert.Equal(t, "青木", loaded.Fixed[0].Staff)
	assert.Equal(t, 1, loaded.Fixed[0].Week)
	assert.Equal(t, 4, loaded.Fixed[0].Weekday)

	require.Len(t, loaded.Vacations, 1)
	assert.Equal(t, 5, loaded.Vacations[0].Week)
}

func TestUpsertStaff(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	staff := []StaffConfig{
		{Name: "青木", Color: "#10B981"},
		{Name: "馬場", Color: "#54A0FF"},
	}
	require.NoError(t, SaveStaff(configPath, staff))

	// Replace an existing member
	err := UpsertStaff(configPath, staff, StaffConfig{Name: "馬場", Color: "#AABBCC"})
	require.NoError(t, err)

	c, err := LoadFile(configPath)
	require.NoError(t, err)
	require.Len(t, c.Staff, 2)
	assert.Equal(t, "#AABBCC", c.Staff[1].Color)

	// Add a new one
	err = UpsertStaff(configPath, c.Staff, StaffConfig{Name: "千葉"})
	require.NoError(t, err)

	c, err = LoadFile(configPath)
	require.NoError(t, err)
	require.Len(t, c.Staff, 3)
	assert.Equal(t, "千葉", c.Staff[2].Name)
}

func TestUpsertStaff_RejectsInvalid(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	err := UpsertStaff(configPath, nil, StaffConfig{Name: "青木", Color: "red"})
	require.Error(t, err)

	_, statErr := os.Stat(configPath)
	assert.True(t, os.IsNotExist(statErr), "invalid staff must not be written")
}

func TestRemoveStaff(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	staff := []StaffConfig{{Name: "青木"}, {Name: "馬場"}}
	require.NoError(t, SaveStaff(configPath, staff))

	require.NoError(t, RemoveStaff(configPath, staff, "青木"))

	c, err := LoadFile(configPath)
	require.NoError(t, err)
	require.Len(t, c.Staff, 1)
	assert.Equal(t, "馬場", c.Staff[0].Name)

	err = RemoveStaff(configPath, c.Staff, "誰か")
	require.Error(t, err)
}
