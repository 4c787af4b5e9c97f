package probe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ContainerState is the three-state view of the game-server container.
type ContainerState int

const (
	ContainerOff ContainerState = iota
	ContainerStarting
	ContainerOn
)

func (s ContainerState) String() string {
	switch s {
	case ContainerStarting:
		return "starting"
	case ContainerOn:
		return "on"
	default:
		return "off"
	}
}

// Classifier maps raw container status text onto a ContainerState.
type Classifier struct {
	// UpPrefix marks a running container ("Up 10 seconds").
	UpPrefix string
	// StartingMarker marks a running container whose health check has not
	// passed yet ("(health: starting)").
	StartingMarker string
}

// DefaultClassifier matches docker's status text.
var DefaultClassifier = Classifier{UpPrefix: "Up", StartingMarker: "health: starting"}

// Classify returns Off for an empty status, Starting for an up container
// carrying the starting marker, On for any other up container and Off for
// everything else (Exited, Created, Restarting...).
func (c Classifier) Classify(status string) ContainerState {
	status = strings.TrimSpace(status)
	if status == "" || !strings.HasPrefix(status, c.UpPrefix) {
		return ContainerOff
	}
	if c.StartingMarker != "" && strings.Contains(status, c.StartingMarker) {
		return ContainerStarting
	}
	return ContainerOn
}

// Players is the online player list of the game server.
type Players struct {
	Count int
	Names []string
}

// DockerStatus returns the Status column of the named container, or "" when
// no such container exists. Output of `docker ps --format '{{json .}}'` is one
// JSON object per line.
func DockerStatus(ctx context.Context, r Runner, name string) (string, error) {
	out, err := r.Run(ctx, "docker", "ps", "-a",
		"--filter", "name=^"+name+"$",
		"--format", "{{json .}}")
	if err != nil {
		return "", err
	}
	return parseDockerPS(out, name), nil
}

func parseDockerPS(out, name string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !gjson.Valid(line) {
			continue
		}
		names := gjson.Get(line, "Names").String()
		if names != "" && names != name && !strings.Contains(","+names+",", ","+name+",") {
			continue
		}
		return gjson.Get(line, "Status").String()
	}
	return ""
}

// DockerPlayers lists online players through the container's rcon-cli.
func DockerPlayers(ctx context.Context, r Runner, name string) (Players, error) {
	out, err := r.Run(ctx, "docker", "exec", name, "rcon-cli", "list")
	if err != nil {
		return Players{}, err
	}
	return ParsePlayerList(out)
}

var playerListRe = regexp.MustCompile(`There are (\d+) of a max(?: of)? \d+ players online:?\s*(.*)`)

// ParsePlayerList parses the server's reply to the "list" command, e.g.
// "There are 2 of a max of 20 players online: alice, bob".
func ParsePlayerList(s string) (Players, error) {
	m := playerListRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Players{}, fmt.Errorf("unexpected player list %q", s)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return Players{}, fmt.Errorf("invalid player count %q: %w", m[1], err)
	}

	players := Players{Count: count, Names: []string{}}
	for _, name := range strings.Split(m[2], ",") {
		if name = strings.TrimSpace(name); name != "" {
			players.Names = append(players.Names, name)
		}
	}
	return players, nil
}
