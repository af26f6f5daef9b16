// Package playback plays generated audio files through whichever
// command-line player is installed. Playback is a convenience on top of
// generation: callers treat its failure as a warning, not a fatal error.
package playback

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrNoPlayer is returned when no supported audio player is installed.
var ErrNoPlayer = errors.New("no audio player found")

// candidate describes one known player binary and the flags that make it
// play a single file and exit without opening a window.
type candidate struct {
	binary string
	args   []string
}

// candidates are probed in order; the first binary found on PATH wins.
var candidates = []candidate{
	{binary: "afplay", args: nil},
	{binary: "paplay", args: nil},
	{binary: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{binary: "mpv", args: []string{"--no-video", "--really-quiet"}},
	{binary: "aplay", args: []string{"-q"}},
}

// Player plays audio files via an external binary.
type Player struct {
	binary string
	args   []string
}

// Find locates an installed audio player.
func Find() (*Player, error) {
	for _, c := range candidates {
		path, err := exec.LookPath(c.binary)
		if err != nil {
			continue
		}

		return &Player{binary: path, args: c.args}, nil
	}

	return nil, ErrNoPlayer
}

// Play plays one audio file and blocks until playback ends or the
// context is canceled.
func (p *Player) Play(ctx context.Context, path string) error {
	args := make([]string, 0, len(p.args)+1)
	args = append(args, p.args...)
	args = append(args, path)

	cmd := exec.CommandContext(ctx, p.binary, args...)

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("playback interrupted: %w", ctx.Err())
		}

		return fmt.Errorf("playback of %s failed: %w", path, err)
	}

	return nil
}
