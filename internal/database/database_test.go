package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"adsb_speech/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	db, err := New(filepath.Join(t.TempDir(), "test_adsb_speech.db"))
	require.NoError(t, err)
	require.NotNil(t, db)

	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)
	assert.NotNil(t, db)
}

func TestAnnouncementInsertBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := db.AnnouncementRepository()

	start := time.Now().Add(-time.Minute)
	first := &models.Announcement{ID: "a1", Timestamp: time.Now().Add(-time.Second), ICAO: "400F01", Flight: "BAW123", Text: "British B77W at 3000 heading 4 5 from London"}
	second := &models.Announcement{ID: "a2", Timestamp: time.Now(), ICAO: "A12345", Flight: "N12345", Suppressed: true}

	require.NoError(t, repo.InsertBatch([]*models.Announcement{first, second}))

	recent, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "a2", recent[0].ID)
	assert.True(t, recent[0].Suppressed)
	assert.Empty(t, recent[0].Text)
	assert.Equal(t, "a1", recent[1].ID)
	assert.Equal(t, first.Text, recent[1].Text)
	assert.Equal(t, "BAW123", recent[1].Flight)

	n, err := repo.CountSince(start)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAnnouncementInsertBatch_Empty(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.AnnouncementRepository().InsertBatch(nil))
}

func TestAnnouncementInsertBatch_Duplicates(t *testing.T) {
	db := setupTestDB(t)
	repo := db.AnnouncementRepository()

	a := models.NewAnnouncement(&models.TrackRecord{ICAO: "400F01", Flight: "BAW123"}, "hello", false)

	// Duplicate IDs are ignored
	require.NoError(t, repo.InsertBatch([]*models.Announcement{a, a}))

	recent, err := repo.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestAircraftRegistry(t *testing.T) {
	db := setupTestDB(t)
	repo := db.AircraftRepository()

	populated, err := repo.IsTablePopulated()
	require.NoError(t, err)
	assert.False(t, populated)

	require.NoError(t, repo.InsertBatch([]*models.Aircraft{
		{ICAO24: "a12345", Registration: "N12345", ManufacturerName: "Cessna", Model: "172S Skyhawk SP", TypeCode: "C172"},
		{ICAO24: "a00002", Registration: "N2", Model: "Homebuilt"},
		{ICAO24: "a00003", Registration: "N3"},
	}))

	populated, err = repo.IsTablePopulated()
	require.NoError(t, err)
	assert.True(t, populated)

	ac, err := repo.FindByICAO("A12345")
	require.NoError(t, err)
	require.NotNil(t, ac)
	assert.Equal(t, "N12345", ac.Registration)
	assert.Equal(t, "Cessna", ac.ManufacturerName)

	tests := []struct {
		icao  string
		label string
		found bool
	}{
		{"a12345", "C172", true},
		{"A00002", "Homebuilt", true},
		{"A00003", "", false},
		{"FFFFFF", "", false},
	}
	for _, tt := range tests {
		label, found, err := repo.TypeCodeByICAO(tt.icao)
		require.NoError(t, err)
		assert.Equal(t, tt.label, label, tt.icao)
		assert.Equal(t, tt.found, found, tt.icao)
	}
}

func TestLoadFromMultipleCSV(t *testing.T) {
	db := setupTestDB(t)
	repo := db.AircraftRepository()

	dir := t.TempDir()
	part1 := filepath.Join(dir, "part1.csv")
	part2 := filepath.Join(dir, "part2.csv")
	header := "'icao24','registration','manufacturerName','model','typecode','operatorIcao'\n"

	require.NoError(t, os.WriteFile(part1, []byte(header+
		"'a12345','N12345','Cessna','172S','C172',''\n"+
		"'','N0','x','y','z',''\n"+
		"'400f01','G-STBA','Boeing','777-336ER','B77W','BAW'\n"), 0644))
	require.NoError(t, os.WriteFile(part2, []byte(header+
		"'a00002','N2','Piper','PA-28','P28A',''\n"+
		"'short','row'\n"), 0644))

	require.NoError(t, repo.LoadFromMultipleCSV([]string{part1, part2}, 2))

	for icao, code := range map[string]string{"A12345": "C172", "400F01": "B77W", "A00002": "P28A"} {
		got, ok, err := repo.TypeCodeByICAO(icao)
		require.NoError(t, err)
		assert.True(t, ok, icao)
		assert.Equal(t, code, got, icao)
	}

	ac, err := repo.FindByICAO("400F01")
	require.NoError(t, err)
	assert.Equal(t, "BAW", ac.OperatorICAO)
}

func TestLoadFromMultipleCSV_MissingFile(t *testing.T) {
	db := setupTestDB(t)
	err := db.AircraftRepository().LoadFromMultipleCSV([]string{filepath.Join(t.TempDir(), "nope.csv")}, 10)
	assert.Error(t, err)
}
