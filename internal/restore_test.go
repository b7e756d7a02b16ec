package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/BlueprintTeam/Blueprint-Daemon/structs"
)

func saveSnapshot(t *testing.T, bp *Blueprint, guildID discord.Snowflake, snapshot *structs.Snapshot) {
	t.Helper()

	if err := bp.Store.Save(guildID, snapshot); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestRestoreScenario(t *testing.T) {
	guildID := discord.Snowflake(100)

	fp := newFakePlatform(guildID, "Test Guild")
	bp := newTestBlueprint(t, fp)

	saveSnapshot(t, bp, guildID, &structs.Snapshot{
		Metadata: structs.GuildMetadata{ID: guildID, Name: "Test Guild"},
		Roles: []structs.Role{
			{ID: 10, Name: "Mod", Permissions: 8},
		},
		Channels: []structs.Channel{
			{
				ID: 20, Name: "general", Kind: structs.ChannelKindText, Position: 0,
				Overwrites: []structs.Overwrite{{RoleID: 10, Allow: 1024, Deny: 0}},
			},
		},
	})

	status, err := bp.RestoreGuild(context.Background(), guildID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if fp.countCreateCalls("role:") != 1 || fp.countCreateCalls("channel:") != 1 {
		t.Errorf("Expected exactly 1 role and 1 channel creation, but got %v", fp.createOrder)
	}

	mod := fp.roleByName("Mod")
	if mod == nil || mod.Permissions != 8 {
		t.Fatalf("Expected role Mod with mask 8, but got %+v", mod)
	}

	general := fp.channelByName("general")
	if general == nil {
		t.Fatal("Expected channel general to exist")
	}

	if general.Type != discord.ChannelTypeGuildText || general.Position != 0 {
		t.Errorf("Unexpected channel %+v", general)
	}

	if len(general.PermissionOverwrites) != 1 {
		t.Fatalf("Expected 1 overwrite, but got %d", len(general.PermissionOverwrites))
	}

	overwrite := general.PermissionOverwrites[0]
	if overwrite.ID != mod.ID || overwrite.Allow != 1024 || overwrite.Deny != 0 {
		t.Errorf("Expected overwrite for new Mod role with allow=1024 deny=0, but got %+v", overwrite)
	}

	// Exactly one completion notice in the rebuilt text channel.
	if len(fp.messages[general.ID]) != 1 {
		t.Errorf("Expected 1 notify message, but got %v", fp.messages)
	}

	if !strings.Contains(status, "1 roles and 1 channels") {
		t.Errorf("Unexpected status %q", status)
	}
}

func TestRestoreCategoriesBeforeChannels(t *testing.T) {
	guildID := discord.Snowflake(100)

	fp := newFakePlatform(guildID, "Test Guild")
	bp := newTestBlueprint(t, fp)

	parent := discord.Snowflake(30)

	saveSnapshot(t, bp, guildID, &structs.Snapshot{
		Metadata: structs.GuildMetadata{ID: guildID, Name: "Test Guild"},
		Channels: []structs.Channel{
			{ID: 21, Name: "general", Kind: structs.ChannelKindText, Position: 0, ParentID: &parent},
			{ID: 30, Name: "Info", Kind: structs.ChannelKindCategory, Position: 1},
			{ID: 22, Name: "Voice", Kind: structs.ChannelKindVoice, Position: 2, ParentID: &parent, Bitrate: 64000, UserLimit: 4},
		},
	})

	if _, err := bp.RestoreGuild(context.Background(), guildID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Every category creation completes before any other channel creation.
	lastCategory, firstChannel := -1, len(fp.createOrder)

	for i, entry := range fp.createOrder {
		if strings.HasPrefix(entry, "category:") && i > lastCategory {
			lastCategory = i
		}

		if strings.HasPrefix(entry, "channel:") && i < firstChannel {
			firstChannel = i
		}
	}

	if lastCategory > firstChannel {
		t.Errorf("Expected categories before channels, but got %v", fp.createOrder)
	}

	info := fp.channelByName("Info")
	if info == nil {
		t.Fatal("Expected category Info to exist")
	}

	for _, name := range []string{"general", "Voice"} {
		channel := fp.channelByName(name)
		if channel == nil {
			t.Fatalf("Expected channel %s to exist", name)
		}

		if channel.ParentID == nil || *channel.ParentID != info.ID {
			t.Errorf("Expected %s parent to be remapped to %v, but got %v", name, info.ID, channel.ParentID)
		}
	}

	voice := fp.channelByName("Voice")
	if voice.Bitrate != 64000 || voice.UserLimit != 4 {
		t.Errorf("Expected voice payload to carry bitrate and user limit, but got %+v", voice)
	}
}

func TestRestoreFailedCategoryResolvesParentToNone(t *testing.T) {
	guildID := discord.Snowflake(100)

	fp := newFakePlatform(guildID, "Test Guild")
	fp.failChannels["Info"] = true

	bp := newTestBlueprint(t, fp)

	parent := discord.Snowflake(30)

	saveSnapshot(t, bp, guildID, &structs.Snapshot{
		Metadata: structs.GuildMetadata{ID: guildID, Name: "Test Guild"},
		Channels: []structs.Channel{
			{ID: 30, Name: "Info", Kind: structs.ChannelKindCategory, Position: 0},
			{ID: 21, Name: "general", Kind: structs.ChannelKindText, Position: 1, ParentID: &parent},
		},
	})

	status, err := bp.RestoreGuild(context.Background(), guildID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	general := fp.channelByName("general")
	if general == nil {
		t.Fatal("Expected channel general to still be created")
	}

	if general.ParentID != nil {
		t.Errorf("Expected no parent, but got %v", general.ParentID)
	}

	if !strings.Contains(status, "failed") {
		t.Errorf("Expected failure tally in status, but got %q", status)
	}
}

func TestRestoreUnmappedPrincipalFallsBackToDefaultRole(t *testing.T) {
	guildID := discord.Snowflake(100)

	fp := newFakePlatform(guildID, "Test Guild")
	bp := newTestBlueprint(t, fp)

	saveSnapshot(t, bp, guildID, &structs.Snapshot{
		Metadata: structs.GuildMetadata{ID: guildID, Name: "Test Guild"},
		Channels: []structs.Channel{
			{
				ID: 21, Name: "general", Kind: structs.ChannelKindText, Position: 0,
				Overwrites: []structs.Overwrite{{RoleID: 999, Allow: 1024, Deny: 2048}},
			},
		},
	})

	if _, err := bp.RestoreGuild(context.Background(), guildID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	general := fp.channelByName("general")
	if general == nil || len(general.PermissionOverwrites) != 1 {
		t.Fatalf("Expected 1 overwrite, but got %+v", general)
	}

	if general.PermissionOverwrites[0].ID != guildID {
		t.Errorf("Expected fallback to default role %v, but got %v", guildID, general.PermissionOverwrites[0].ID)
	}
}

func TestRestoreMissingSnapshotAbortsBeforeTeardown(t *testing.T) {
	fp := newFakePlatform(100, "Test Guild")
	bp := newTestBlueprint(t, fp)

	_, err := bp.RestoreGuild(context.Background(), 100)
	if !errors.Is(err, ErrSnapshotMissing) {
		t.Fatalf("Expected ErrSnapshotMissing, but got %v", err)
	}

	if len(fp.requests) != 0 {
		t.Errorf("Expected no platform calls, but got %v", fp.requests)
	}
}

func TestRestoreTeardownClearsLiveStructure(t *testing.T) {
	guildID := discord.Snowflake(100)

	fp := newFakePlatform(guildID, "Test Guild")
	fp.roles = append(fp.roles,
		discord.Role{ID: 11, Name: "Old Role"},
		discord.Role{ID: 12, Name: "Bot Role", Managed: true},
	)
	fp.channels = []discord.Channel{
		{ID: 31, Name: "old-general", Type: discord.ChannelTypeGuildText},
	}

	bp := newTestBlueprint(t, fp)

	saveSnapshot(t, bp, guildID, &structs.Snapshot{
		Metadata: structs.GuildMetadata{ID: guildID, Name: "Test Guild"},
		Roles:    []structs.Role{{ID: 10, Name: "Mod", Permissions: 8}},
		Channels: []structs.Channel{{ID: 20, Name: "general", Kind: structs.ChannelKindText}},
	})

	if _, err := bp.RestoreGuild(context.Background(), guildID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if fp.channelByName("old-general") != nil {
		t.Error("Expected old channel to be deleted")
	}

	if fp.roleByName("Old Role") != nil {
		t.Error("Expected old role to be deleted")
	}

	// Managed and default roles survive teardown.
	if fp.roleByName("Bot Role") == nil || fp.role(guildID) == nil {
		t.Errorf("Expected managed and default roles to survive, but got %+v", fp.roles)
	}
}

func TestRestoreStrictModeAborts(t *testing.T) {
	guildID := discord.Snowflake(100)

	fp := newFakePlatform(guildID, "Test Guild")
	fp.failRoles["Broken"] = true

	bp := newTestBlueprint(t, fp)
	bp.Configuration.StrictRestore = true

	saveSnapshot(t, bp, guildID, &structs.Snapshot{
		Metadata: structs.GuildMetadata{ID: guildID, Name: "Test Guild"},
		Roles: []structs.Role{
			{ID: 10, Name: "Broken"},
			{ID: 11, Name: "Mod"},
		},
		Channels: []structs.Channel{{ID: 20, Name: "general", Kind: structs.ChannelKindText}},
	})

	status, err := bp.RestoreGuild(context.Background(), guildID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if fp.countCreateCalls("channel:") != 0 {
		t.Errorf("Expected no channel creation after abort, but got %v", fp.createOrder)
	}

	if fp.roleByName("Mod") != nil {
		t.Error("Expected remaining roles to be skipped after abort")
	}

	if !strings.Contains(status, "aborted") {
		t.Errorf("Expected aborted status, but got %q", status)
	}
}

func TestRestoreAppliesMetadata(t *testing.T) {
	guildID := discord.Snowflake(100)

	fp := newFakePlatform(guildID, "Renamed Guild")
	bp := newTestBlueprint(t, fp)

	saveSnapshot(t, bp, guildID, &structs.Snapshot{
		Metadata: structs.GuildMetadata{ID: guildID, Name: "Test Guild", Icon: "iconhash"},
	})

	if _, err := bp.RestoreGuild(context.Background(), guildID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if fp.guild.Name != "Test Guild" {
		t.Errorf("Expected guild to be renamed, but got %q", fp.guild.Name)
	}

	if fp.guild.Icon != "iconhash" {
		t.Errorf("Expected icon to be reapplied, but got %q", fp.guild.Icon)
	}
}
