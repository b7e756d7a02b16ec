package internal

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestBlueprint(t *testing.T, transport http.RoundTripper) *Blueprint {
	t.Helper()

	client := NewClient("test-token", zerolog.Nop())
	client.HTTP = &http.Client{Transport: transport}
	client.sleep = func(time.Duration) {}

	return &Blueprint{
		Logger:          zerolog.Nop(),
		Client:          client,
		Store:           NewSnapshotStore(t.TempDir()),
		operationActive: atomic.NewBool(false),
	}
}

// fakePlatform is an in-memory stand-in for the platform API. It mints a
// fresh id for every created entity and records the order of creations.
type fakePlatform struct {
	mu sync.Mutex

	lastID   discord.Snowflake
	guild    discord.Guild
	roles    []discord.Role
	channels []discord.Channel

	requests    []string
	createOrder []string
	messages    map[discord.Snowflake][]string

	failRoles      map[string]bool
	failChannels   map[string]bool
	failOverwrites bool
}

func newFakePlatform(guildID discord.Snowflake, name string) *fakePlatform {
	return &fakePlatform{
		lastID: 1000,
		guild: discord.Guild{
			ID:   guildID,
			Name: name,
		},
		roles: []discord.Role{
			{ID: guildID, Name: "@everyone"},
		},
		messages:     make(map[discord.Snowflake][]string),
		failRoles:    make(map[string]bool),
		failChannels: make(map[string]bool),
	}
}

func (fp *fakePlatform) nextID() discord.Snowflake {
	fp.lastID++

	return fp.lastID
}

func (fp *fakePlatform) respond(status int, v interface{}) (*http.Response, error) {
	var body []byte

	if v != nil {
		body, _ = json.Marshal(v)
	}

	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func decodeBody(req *http.Request, v interface{}) {
	data, _ := io.ReadAll(req.Body)
	_ = json.Unmarshal(data, v)
}

func parseID(s string) discord.Snowflake {
	i, _ := strconv.ParseInt(s, 10, 64)

	return discord.Snowflake(i)
}

func (fp *fakePlatform) role(id discord.Snowflake) *discord.Role {
	for i := range fp.roles {
		if fp.roles[i].ID == id {
			return &fp.roles[i]
		}
	}

	return nil
}

func (fp *fakePlatform) roleByName(name string) *discord.Role {
	for i := range fp.roles {
		if fp.roles[i].Name == name {
			return &fp.roles[i]
		}
	}

	return nil
}

func (fp *fakePlatform) channel(id discord.Snowflake) *discord.Channel {
	for i := range fp.channels {
		if fp.channels[i].ID == id {
			return &fp.channels[i]
		}
	}

	return nil
}

func (fp *fakePlatform) channelByName(name string) *discord.Channel {
	for i := range fp.channels {
		if fp.channels[i].Name == name {
			return &fp.channels[i]
		}
	}

	return nil
}

func (fp *fakePlatform) removeRole(id discord.Snowflake) {
	kept := fp.roles[:0]

	for _, role := range fp.roles {
		if role.ID != id {
			kept = append(kept, role)
		}
	}

	fp.roles = kept
}

func (fp *fakePlatform) removeChannel(id discord.Snowflake) {
	kept := fp.channels[:0]

	for _, channel := range fp.channels {
		if channel.ID != id {
			kept = append(kept, channel)
		}
	}

	fp.channels = kept
}

func (fp *fakePlatform) RoundTrip(req *http.Request) (*http.Response, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	fp.requests = append(fp.requests, req.Method+" "+req.URL.Path)

	path := strings.TrimPrefix(req.URL.Path, "/api/v10")
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")

	switch {
	case req.Method == http.MethodGet && len(parts) == 2 && parts[0] == "guilds":
		return fp.respond(http.StatusOK, fp.guild)

	case req.Method == http.MethodGet && len(parts) == 3 && parts[0] == "guilds" && parts[2] == "roles":
		return fp.respond(http.StatusOK, fp.roles)

	case req.Method == http.MethodGet && len(parts) == 3 && parts[0] == "guilds" && parts[2] == "channels":
		return fp.respond(http.StatusOK, fp.channels)

	case req.Method == http.MethodPost && len(parts) == 3 && parts[0] == "guilds" && parts[2] == "roles":
		var params discord.RoleParams

		decodeBody(req, &params)

		if fp.failRoles[params.Name] {
			return fp.respond(http.StatusBadRequest, discord.ErrorMessage{Message: "induced failure"})
		}

		role := discord.Role{
			ID:          fp.nextID(),
			Name:        params.Name,
			Color:       params.Color,
			Hoist:       params.Hoist,
			Mentionable: params.Mentionable,
		}

		if params.Permissions != nil {
			role.Permissions = *params.Permissions
		}

		fp.roles = append(fp.roles, role)
		fp.createOrder = append(fp.createOrder, "role:"+params.Name)

		return fp.respond(http.StatusOK, role)

	case req.Method == http.MethodDelete && len(parts) == 4 && parts[0] == "guilds" && parts[2] == "roles":
		fp.removeRole(parseID(parts[3]))

		return fp.respond(http.StatusNoContent, nil)

	case req.Method == http.MethodPost && len(parts) == 3 && parts[0] == "guilds" && parts[2] == "channels":
		var params discord.ChannelParams

		decodeBody(req, &params)

		if fp.failChannels[params.Name] {
			return fp.respond(http.StatusBadRequest, discord.ErrorMessage{Message: "induced failure"})
		}

		channel := discord.Channel{
			ID:               fp.nextID(),
			Name:             params.Name,
			Type:             params.Type,
			Position:         params.Position,
			Topic:            params.Topic,
			NSFW:             params.NSFW,
			RateLimitPerUser: params.RateLimitPerUser,
			Bitrate:          params.Bitrate,
			UserLimit:        params.UserLimit,
			ParentID:         params.ParentID,
		}

		fp.channels = append(fp.channels, channel)

		if params.Type == discord.ChannelTypeGuildCategory {
			fp.createOrder = append(fp.createOrder, "category:"+params.Name)
		} else {
			fp.createOrder = append(fp.createOrder, "channel:"+params.Name)
		}

		return fp.respond(http.StatusOK, channel)

	case req.Method == http.MethodDelete && len(parts) == 2 && parts[0] == "channels":
		fp.removeChannel(parseID(parts[1]))

		return fp.respond(http.StatusNoContent, nil)

	case req.Method == http.MethodPatch && len(parts) == 2 && parts[0] == "channels":
		if fp.failOverwrites {
			return fp.respond(http.StatusBadRequest, discord.ErrorMessage{Message: "induced failure"})
		}

		channel := fp.channel(parseID(parts[1]))
		if channel == nil {
			return fp.respond(http.StatusNotFound, discord.ErrorMessage{Message: "unknown channel"})
		}

		var params discord.ChannelParams

		decodeBody(req, &params)

		if params.PermissionOverwrites != nil {
			channel.PermissionOverwrites = params.PermissionOverwrites
		}

		return fp.respond(http.StatusOK, channel)

	case req.Method == http.MethodPatch && len(parts) == 2 && parts[0] == "guilds":
		var params discord.GuildParams

		decodeBody(req, &params)

		if params.Name != nil {
			fp.guild.Name = *params.Name
		}

		if params.Icon != nil {
			fp.guild.Icon = *params.Icon
		}

		return fp.respond(http.StatusOK, fp.guild)

	case req.Method == http.MethodPost && len(parts) == 3 && parts[0] == "channels" && parts[2] == "messages":
		var params discord.MessageParams

		decodeBody(req, &params)

		channelID := parseID(parts[1])
		fp.messages[channelID] = append(fp.messages[channelID], params.Content)

		return fp.respond(http.StatusOK, discord.Message{
			ID:        fp.nextID(),
			ChannelID: channelID,
			Content:   params.Content,
		})
	}

	return fp.respond(http.StatusNotFound, discord.ErrorMessage{Message: "unknown route"})
}

func (fp *fakePlatform) countCreateCalls(prefix string) int {
	count := 0

	for _, entry := range fp.createOrder {
		if strings.HasPrefix(entry, prefix) {
			count++
		}
	}

	return count
}
