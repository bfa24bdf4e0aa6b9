package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulsim/haulsim/sim/store"
)

func TestHistoryDSN(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		env     map[string]string
		want    string
		wantErr bool
	}{
		{"flag wins", "flag.db", map[string]string{envDB: "env.db"}, "flag.db", false},
		{"env fallback", "", map[string]string{envDB: "env.db"}, "env.db", false},
		{"empty env is unset", "", map[string]string{envDB: ""}, "", true},
		{"nothing configured", "", nil, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := historyDSN(tc.flag, envMap(tc.env))
			if tc.wantErr {
				assert.ErrorIs(t, err, errNoStore)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRunAndHistory_ShareStoreResolution(t *testing.T) {
	// GIVEN HAULSIM_DB pointing at a fresh path and no --db flag
	dbPath := filepath.Join(t.TempDir(), "runs", "haulsim.db")
	env := envMap(map[string]string{envDB: dbPath})
	opts, err := resolveRunOptions(parseRunFlags(t, "--hours", "10", "--loading-min", "60", "--loading-max", "60",
		"--tick-interval-ms", "0", "--report-every", "0"), env)
	require.NoError(t, err)

	// WHEN a run completes and history resolves its store
	res, err := runSimulation(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	dsn, err := historyDSN("", env)
	require.NoError(t, err)
	db, err := store.Open(context.Background(), dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// THEN history lists the run that was just saved
	var out bytes.Buffer
	require.NoError(t, listHistory(context.Background(), db, 0, &out))
	assert.Contains(t, out.String(), res.ID.String())
}

func openHistoryStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "haulsim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestListHistory_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listHistory(context.Background(), openHistoryStore(t), 0, &out))
	assert.Equal(t, "No stored runs.\n", out.String())
}

func TestListHistory_MarksStoppedRuns(t *testing.T) {
	// GIVEN one complete and one stopped run
	db := openHistoryStore(t)
	full, err := runSimulation(context.Background(), fixedRunOptions(), &bytes.Buffer{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stopped, err := runSimulation(ctx, fixedRunOptions(), &bytes.Buffer{})
	require.NoError(t, err)
	base := time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)
	for i, res := range []*RunResult{full, stopped} {
		_, err := db.SaveRun(context.Background(), store.Run{
			ID: res.ID, StartedAt: base.Add(time.Duration(i) * time.Minute),
			Config: fixedRunOptions().Sim, Stopped: res.Stopped, Summary: res.Summary,
		})
		require.NoError(t, err)
	}

	// WHEN the history is listed
	var out bytes.Buffer
	require.NoError(t, listHistory(context.Background(), db, 0, &out))

	// THEN both runs appear, newest first, the stopped one flagged
	s := out.String()
	assert.Contains(t, s, "RUN ID")
	assert.Contains(t, s, full.ID.String())
	assert.Contains(t, s, stopped.ID.String())
	assert.Contains(t, s, "2026-05-04 06:01:00")
	assert.Contains(t, s, "0*")
	assert.Less(t, bytes.Index(out.Bytes(), []byte(stopped.ID.String())), bytes.Index(out.Bytes(), []byte(full.ID.String())))
}

func TestShowRun(t *testing.T) {
	// GIVEN a stored run
	db := openHistoryStore(t)
	res, err := runSimulation(context.Background(), fixedRunOptions(), &bytes.Buffer{})
	require.NoError(t, err)
	_, err = db.SaveRun(context.Background(), store.Run{
		ID: res.ID, StartedAt: time.Now(), Config: fixedRunOptions().Sim, Summary: res.Summary,
	})
	require.NoError(t, err)

	// WHEN it is shown by id
	var out bytes.Buffer
	require.NoError(t, showRun(context.Background(), db, res.ID.String(), &out))

	// THEN its configuration and summary are printed
	assert.Contains(t, out.String(), "RunID:"+res.ID.String())
	assert.Contains(t, out.String(), "NumOfTrucks:1")
	assert.Contains(t, out.String(), "[T-SUMMARY] Truck_1, TotalRunTime:600:min, NumOfDelivery:6")
}

func TestShowRun_Errors(t *testing.T) {
	db := openHistoryStore(t)
	var out bytes.Buffer
	assert.Error(t, showRun(context.Background(), db, "not-a-uuid", &out))
	assert.ErrorIs(t, showRun(context.Background(), db, uuid.NewString(), &out), store.ErrNotFound)
}
