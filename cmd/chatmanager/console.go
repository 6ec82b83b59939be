package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/chat"
	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/logger"
	"github.com/memohai/chatmanager/internal/snapshot"
)

const consoleHelp = `Lines are sent as the console. Lines starting with / are commands.
  .join <name> [world x y z]       add a player
  .leave <name>                    remove a player
  .as <name> <line>                chat or run a command as a player
  .move <name> <world> <x> <y> <z> move a player
  .hold <name> <material> [amount] [display name]
  .ender <name> <material> [amount]
  .locale <name> <locale>          set the client locale
  .nick <name> <display name>      set the display name
  .complete <buffer>               show completions
  .who                             list online identities
  .quit                            exit`

var errQuit = errors.New("quit")

// console drives a chat service from text input. Every identity it creates
// is subscribed to the hub and its deliveries are printed.
type console struct {
	svc     *chat.Service
	hub     *delivery.Hub
	tracker *identity.Tracker
	out     *printer
	logger  *slog.Logger

	mu      sync.Mutex
	players map[string]*identity.Player
	cancels map[uuid.UUID]func()
	wg      sync.WaitGroup
}

func newConsole(log *slog.Logger, svc *chat.Service, hub *delivery.Hub, tracker *identity.Tracker, out *printer) *console {
	c := &console{
		svc:     svc,
		hub:     hub,
		tracker: tracker,
		out:     out,
		logger:  log.With(slog.String("component", "console")),
		players: map[string]*identity.Player{},
		cancels: map[uuid.UUID]func(){},
	}
	out.label = c.label
	c.subscribe(uuid.Nil)
	return c
}

func (c *console) label(ev delivery.Event) string {
	if ev.Target == uuid.Nil {
		return "console"
	}
	if id, ok := c.tracker.Get(ev.Target); ok {
		return id.Name()
	}
	return ev.Target.String()
}

func (c *console) subscribe(id uuid.UUID) {
	_, events, cancel := c.hub.Subscribe(id)
	c.mu.Lock()
	c.cancels[id] = cancel
	c.mu.Unlock()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range events {
			if err := c.out.Event(ev); err != nil {
				c.logger.Warn("print event failed", slog.Any("error", err))
			}
		}
	}()
}

func (c *console) unsubscribe(id uuid.UUID) {
	c.mu.Lock()
	cancel, ok := c.cancels[id]
	delete(c.cancels, id)
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close ends every subscription and waits for pending output.
func (c *console) Close() {
	c.mu.Lock()
	cancels := make([]func(), 0, len(c.cancels))
	for _, cancel := range c.cancels {
		cancels = append(cancels, cancel)
	}
	c.cancels = map[uuid.UUID]func(){}
	c.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	c.wg.Wait()
}

// Run executes lines from r until EOF, .quit or ctx is done.
func (c *console) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := c.Exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			c.out.Line("error: %v", err)
		}
	}
	return scanner.Err()
}

// Exec runs one input line.
func (c *console) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, ".") {
		return c.send(ctx, identity.Console{}, line)
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	args := strings.Fields(rest)
	switch strings.ToLower(name) {
	case "help":
		c.out.Line("%s", consoleHelp)
		return nil
	case "quit", "exit":
		return errQuit
	case "who":
		for _, id := range c.tracker.Online() {
			c.out.Line("%s %s", id.Name(), id.ID())
		}
		return nil
	case "complete":
		c.out.Line("%s", strings.Join(c.svc.Complete(strings.TrimLeft(rest, " ")), " "))
		return nil
	case "join":
		return c.join(ctx, args)
	}

	if len(args) == 0 {
		return fmt.Errorf("usage: .%s <name> ...", name)
	}
	p, err := c.player(args[0])
	if err != nil {
		return err
	}
	switch strings.ToLower(name) {
	case "leave":
		c.svc.Leave(ctx, p.ID())
		c.unsubscribe(p.ID())
		c.mu.Lock()
		delete(c.players, strings.ToLower(p.Name()))
		c.mu.Unlock()
		return nil
	case "as":
		_, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
		return c.send(ctx, p, text)
	case "move":
		if len(args) != 5 {
			return errors.New("usage: .move <name> <world> <x> <y> <z>")
		}
		pos, err := parsePosition(args[1:])
		if err != nil {
			return err
		}
		p.MoveTo(pos)
		return nil
	case "hold":
		item, err := parseItem(args[1:])
		if err != nil {
			return err
		}
		inv := p.Inventory()
		if len(inv.Storage) == 0 {
			inv.Storage = make([]snapshot.Item, 36)
		}
		inv.Storage[inv.HeldSlot] = item
		p.SetInventory(inv)
		return nil
	case "ender":
		item, err := parseItem(args[1:])
		if err != nil {
			return err
		}
		inv := p.Inventory()
		inv.Ender = append(inv.Ender, item)
		p.SetInventory(inv)
		return nil
	case "locale":
		if len(args) != 2 {
			return errors.New("usage: .locale <name> <locale>")
		}
		p.SetLocale(args[1])
		return nil
	case "nick":
		if len(args) < 2 {
			return errors.New("usage: .nick <name> <display name>")
		}
		p.SetDisplayName(strings.Join(args[1:], " "))
		return nil
	}
	return fmt.Errorf("unknown directive .%s (try .help)", name)
}

func (c *console) send(ctx context.Context, sender identity.Identity, line string) error {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return c.svc.HandleChat(ctx, sender, line)
	}
	handled, err := c.svc.HandleCommand(ctx, sender, line)
	if !handled {
		return fmt.Errorf("unknown command %s", strings.Fields(line)[0])
	}
	// These were already answered in chat.
	if errors.Is(err, chat.ErrUnknownTarget) || errors.Is(err, chat.ErrViewExpired) || errors.Is(err, chat.ErrNoPermission) {
		logger.FromContext(ctx).Debug("command refused", slog.String("line", line), slog.Any("error", err))
		return nil
	}
	return err
}

func (c *console) join(ctx context.Context, args []string) error {
	if len(args) != 1 && len(args) != 5 {
		return errors.New("usage: .join <name> [world x y z]")
	}
	p := identity.NewPlayer(uuid.New(), args[0])
	p.MoveTo(identity.Position{World: "world"})
	if len(args) == 5 {
		pos, err := parsePosition(args[1:])
		if err != nil {
			return err
		}
		p.MoveTo(pos)
	}
	if err := c.svc.Join(ctx, p); err != nil {
		return err
	}
	c.mu.Lock()
	c.players[strings.ToLower(p.Name())] = p
	c.mu.Unlock()
	c.subscribe(p.ID())
	return nil
}

func (c *console) player(name string) (*identity.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("no player named %q", name)
	}
	return p, nil
}

func parsePosition(args []string) (identity.Position, error) {
	pos := identity.Position{World: args[0]}
	coords := []*float64{&pos.X, &pos.Y, &pos.Z}
	for i, raw := range args[1:4] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return pos, fmt.Errorf("invalid coordinate %q: %w", raw, err)
		}
		*coords[i] = v
	}
	return pos, nil
}

func parseItem(args []string) (snapshot.Item, error) {
	if len(args) == 0 {
		return snapshot.Item{}, errors.New("missing material")
	}
	item := snapshot.Item{Material: strings.ToLower(args[0]), Amount: 1}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return item, fmt.Errorf("invalid amount %q", args[1])
		}
		item.Amount = n
	}
	if len(args) > 2 {
		item.Name = strings.Join(args[2:], " ")
	}
	return item, nil
}
