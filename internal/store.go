package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/BlueprintTeam/Blueprint-Daemon/structs"
)

const (
	PermissionsDefault = 0o744
	PermissionWrite    = 0o600
)

// SnapshotStore persists one snapshot per guild as a pretty printed JSON
// document. It has no concurrency control of its own; callers must not
// write the same guild's snapshot concurrently.
type SnapshotStore struct {
	BaseDirectory string
}

func NewSnapshotStore(baseDirectory string) *SnapshotStore {
	return &SnapshotStore{
		BaseDirectory: baseDirectory,
	}
}

// Path returns the snapshot file location for a guild.
func (ss *SnapshotStore) Path(guildID discord.Snowflake) string {
	return filepath.Join(ss.BaseDirectory, guildID.String()+".json")
}

// Save serializes the snapshot and fully replaces any existing file for the
// guild, creating the base directory as needed.
func (ss *SnapshotStore) Save(guildID discord.Snowflake, snapshot *structs.Snapshot) error {
	if err := os.MkdirAll(ss.BaseDirectory, PermissionsDefault); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(ss.Path(guildID), data, PermissionWrite); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// Load reads the guild's snapshot. A missing file is reported through found
// rather than an error; malformed content wraps ErrSnapshotCorrupt and is
// never partially accepted.
func (ss *SnapshotStore) Load(guildID discord.Snowflake) (snapshot *structs.Snapshot, found bool, err error) {
	data, err := os.ReadFile(ss.Path(guildID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snapshot = &structs.Snapshot{}

	if err = json.Unmarshal(data, snapshot); err != nil {
		return nil, true, fmt.Errorf("%v: %w", err, ErrSnapshotCorrupt)
	}

	return snapshot, true, nil
}
