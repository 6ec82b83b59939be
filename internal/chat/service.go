// Package chat orchestrates the render pipeline for chat lines, whispers,
// broadcasts and the /chatmanager command.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/annotate"
	"github.com/memohai/chatmanager/internal/capability"
	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/format"
	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/placeholder"
	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/sanitize"
	"github.com/memohai/chatmanager/internal/snapshot"
	"github.com/memohai/chatmanager/internal/substitute"
	"github.com/memohai/chatmanager/internal/version"
	"github.com/memohai/chatmanager/internal/viewsession"
)

// Deps are the collaborators of a Service. Mentions, Hovers and Notifier
// are optional.
type Deps struct {
	Tracker  *identity.Tracker
	Renderer *format.Renderer
	Engine   *substitute.Engine
	Registry *placeholder.Registry
	Store    *viewsession.Store
	Mentions *annotate.Mentions
	Hovers   *annotate.Hovers
	Notifier *annotate.Notifier
	Out      Deliverer
}

// Service handles chat input from identities.
type Service struct {
	deps     Deps
	logger   *slog.Logger
	settings atomic.Pointer[Settings]

	mu     sync.RWMutex
	reload ReloadFunc
}

// NewService creates a chat service.
func NewService(log *slog.Logger, deps Deps, settings Settings) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		deps:   deps,
		logger: log.With(slog.String("service", "chat")),
	}
	s.SetSettings(settings)
	return s
}

// SetSettings swaps the settings used by later requests.
func (s *Service) SetSettings(settings Settings) {
	s.settings.Store(&settings)
}

// SetReloader installs the function run by the reload subcommand.
func (s *Service) SetReloader(fn ReloadFunc) {
	s.mu.Lock()
	s.reload = fn
	s.mu.Unlock()
}

// --- Presence ---

// Join starts tracking an identity.
func (s *Service) Join(_ context.Context, id identity.Identity) error {
	if err := s.deps.Tracker.Add(id); err != nil {
		return fmt.Errorf("join %s: %w", id.Name(), err)
	}
	s.logger.Info("identity joined", slog.String("name", id.Name()), slog.String("id", id.ID().String()))
	return nil
}

// Leave stops tracking an identity.
func (s *Service) Leave(_ context.Context, id uuid.UUID) {
	s.deps.Tracker.Remove(id)
	if s.deps.Notifier != nil {
		s.deps.Notifier.Forget(id)
	}
}

// --- Rendering ---

// Render runs the full pipeline for authored text: sanitize and templates,
// then placeholders, mentions and name hovers.
func (s *Service) Render(ctx context.Context, author identity.Identity, raw string, scope format.Scope) richtext.Node {
	markup := s.deps.Renderer.RenderAuthored(s.deps.Renderer.Author(ctx, author), raw, scope)
	return s.annotate(ctx, author, richtext.Parse(markup))
}

// relay renders text that bypasses the chat templates. Players keep only
// the formatting they are allowed to use.
func (s *Service) relay(ctx context.Context, sender identity.Identity, raw string) richtext.Node {
	var markup string
	if identity.IsConsoleKind(sender.Kind()) {
		markup = s.deps.Renderer.RenderPlain(sender, raw)
	} else {
		markup = sanitize.Sanitize(raw, s.deps.Renderer.Capabilities(ctx, sender))
	}
	return s.annotate(ctx, sender, richtext.Parse(markup))
}

func (s *Service) annotate(ctx context.Context, actor identity.Identity, tree richtext.Node) richtext.Node {
	if s.deps.Engine != nil {
		tree = s.deps.Engine.Substitute(ctx, tree, actor)
	}
	if s.deps.Mentions != nil {
		tree = s.deps.Mentions.Apply(ctx, tree)
	}
	if s.deps.Hovers != nil {
		tree = s.deps.Hovers.Apply(ctx, tree)
	}
	return tree
}

func (s *Service) reply(ctx context.Context, to identity.Identity, markup string) error {
	return s.deps.Out.Send(ctx, to.ID(), richtext.Parse(markup))
}

// --- Chat ---

// HandleChat renders and delivers a chat line. A line starting with the
// global prefix goes to everyone; other lines go to identities within the
// local radius, and to out-of-range listeners with the bypass prefix.
func (s *Service) HandleChat(ctx context.Context, author identity.Identity, line string) error {
	st := s.settings.Load()
	scope := format.ScopeLocal
	text := strings.TrimSpace(line)
	if st.GlobalPrefix != "" && strings.HasPrefix(text, st.GlobalPrefix) {
		scope = format.ScopeGlobal
		text = strings.TrimSpace(strings.TrimPrefix(text, st.GlobalPrefix))
	}
	if text == "" {
		return nil
	}

	tree := s.Render(ctx, author, text, scope)
	pos, positioned := author.(identity.Positioned)
	if scope == format.ScopeGlobal || !positioned {
		return s.deps.Out.Broadcast(ctx, tree)
	}

	n, err := s.deps.Out.SendNearby(ctx, delivery.Nearby{
		Origin:  pos.Position(),
		Radius:  st.LocalRadius,
		Message: tree,
		Listener: func(id identity.Identity) bool {
			return s.deps.Renderer.Capabilities(ctx, id).Has(capability.LocalListener)
		},
		Far: richtext.Join(richtext.Parse(st.Messages.BypassPrefix), tree),
	})
	if err != nil {
		return fmt.Errorf("deliver local chat: %w", err)
	}
	s.logger.Debug("local chat delivered", slog.String("author", author.Name()), slog.Int("recipients", n))
	// The console sees all chat.
	return s.deps.Out.Send(ctx, uuid.Nil, tree)
}

// HandleCommand runs a command line such as "/msg Steve hi". It reports
// whether the command belongs to this service.
func (s *Service) HandleCommand(ctx context.Context, sender identity.Identity, line string) (bool, error) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	st := s.settings.Load()

	switch {
	case slices.Contains(st.WhisperAliases, name):
		// Whispers need a target and text.
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 3 {
			return true, nil
		}
		return true, s.Whisper(ctx, sender, name, parts[1], parts[2])
	case slices.Contains(st.BroadcastAliases, name):
		return true, s.Broadcast(ctx, sender, strings.TrimSpace(rest))
	case name == AdminCommand:
		return true, s.Admin(ctx, sender, strings.Fields(rest))
	}
	return false, nil
}

// Whisper sends a private message. Players get an echo of what they sent,
// and the recipient frame of a player's whisper offers a reply click.
func (s *Service) Whisper(ctx context.Context, sender identity.Identity, alias, targetName, text string) error {
	st := s.settings.Load()
	target, ok := s.deps.Tracker.Lookup(targetName)
	if !ok {
		if err := s.reply(ctx, sender, st.Messages.PlayerNotFound); err != nil {
			return err
		}
		return fmt.Errorf("whisper to %q: %w", targetName, ErrUnknownTarget)
	}

	body := s.relay(ctx, sender, text)
	senderName := richtext.Escape(sender.Name())

	if identity.IsConsoleKind(sender.Kind()) {
		frame := strings.ReplaceAll(st.Whisper.IncomingConsole, "{sender}", senderName)
		return s.deps.Out.Send(ctx, target.ID(), richtext.Join(richtext.Parse(frame), body))
	}

	echo := strings.ReplaceAll(st.Whisper.Outgoing, "{target}", richtext.Escape(target.Name()))
	if err := s.deps.Out.Send(ctx, sender.ID(), richtext.Join(richtext.Parse(echo), body)); err != nil {
		return err
	}
	frame := strings.NewReplacer(
		"{reply-hover}", st.Whisper.ReplyHover,
		"{alias}", alias,
		"{sender}", senderName,
	).Replace(st.Whisper.Incoming)
	return s.deps.Out.Send(ctx, target.ID(), richtext.Join(richtext.Parse(frame), body))
}

// Broadcast relays text to everyone without a chat template.
func (s *Service) Broadcast(ctx context.Context, sender identity.Identity, text string) error {
	if text == "" {
		return nil
	}
	markup := s.deps.Renderer.RenderPlain(sender, text)
	return s.deps.Out.Broadcast(ctx, s.annotate(ctx, sender, richtext.Parse(markup)))
}

// OpenView shows the stored snapshot of owner to viewer. A missing session
// tells the viewer the view expired.
func (s *Service) OpenView(ctx context.Context, viewer identity.Identity, owner uuid.UUID, kind snapshot.Kind) error {
	snap, ok := s.deps.Store.Get(owner, kind)
	if !ok {
		if err := s.reply(ctx, viewer, s.settings.Load().Messages.ViewExpired); err != nil {
			return err
		}
		return ErrViewExpired
	}
	return s.deps.Out.ShowSnapshot(ctx, viewer.ID(), snap)
}

// Admin runs a /chatmanager subcommand.
func (s *Service) Admin(ctx context.Context, sender identity.Identity, args []string) error {
	st := s.settings.Load()
	if len(args) == 0 {
		return s.reply(ctx, sender, st.Messages.Help)
	}
	switch strings.ToLower(args[0]) {
	case "help":
		return s.reply(ctx, sender, st.Messages.Help)
	case "colors":
		return s.reply(ctx, sender, st.Messages.Colors)
	case "info":
		info := strings.NewReplacer(
			"{version}", richtext.Escape(version.GetInfo()),
			"{radius}", strconv.FormatFloat(st.LocalRadius, 'f', -1, 64),
			"{format}", richtext.Escape(st.MessageFormat),
		).Replace(st.Messages.Info)
		return s.reply(ctx, sender, info)
	case "placeholders":
		return s.reply(ctx, sender, s.placeholderList(st))
	case "mentiontoggle":
		return s.toggleMentions(ctx, sender, st)
	case "reload":
		return s.reloadCommand(ctx, sender, st)
	case "openinv":
		if len(args) != 3 {
			return nil
		}
		return s.openCommand(ctx, sender, args[1], args[2], st)
	}
	return s.reply(ctx, sender, st.Messages.UnknownCommand)
}

func (s *Service) placeholderList(st *Settings) string {
	set := s.deps.Registry.Load()
	if set.Len() == 0 {
		return st.Messages.PlaceholdersEmpty
	}
	line := func(key, description string) string {
		return strings.NewReplacer(
			"{key}", richtext.Escape(key),
			"{description}", description,
		).Replace(st.Messages.PlaceholderLine)
	}
	lines := []string{st.Messages.PlaceholdersHeader}
	if cmd, ok := set.Command(); ok {
		lines = append(lines, line(cmd.Key, cmd.Description))
	}
	for _, key := range set.Keys() {
		def, _ := set.Lookup(key)
		lines = append(lines, line(key, def.Description))
	}
	return strings.Join(lines, "\n")
}

func (s *Service) toggleMentions(ctx context.Context, sender identity.Identity, st *Settings) error {
	if identity.IsConsoleKind(sender.Kind()) || s.deps.Notifier == nil {
		return ErrNotAPlayer
	}
	status := st.Messages.MentionDisabled
	if s.deps.Notifier.Toggle(sender.ID()) {
		status = st.Messages.MentionEnabled
	}
	return s.reply(ctx, sender, strings.ReplaceAll(st.Messages.MentionToggle, "{status}", status))
}

func (s *Service) reloadCommand(ctx context.Context, sender identity.Identity, st *Settings) error {
	allowed := identity.IsConsoleKind(sender.Kind()) ||
		s.deps.Renderer.Capabilities(ctx, sender).Has(capability.Reload)
	if !allowed {
		if err := s.reply(ctx, sender, st.Messages.NoPermission); err != nil {
			return err
		}
		return ErrNoPermission
	}

	s.mu.RLock()
	reload := s.reload
	s.mu.RUnlock()
	if reload == nil {
		return s.reply(ctx, sender, st.Messages.ReloadSuccess)
	}
	if err := reload(ctx); err != nil {
		s.logger.Error("reload failed", slog.Any("error", err))
		// Settings may have been swapped by the reload; report with the new ones.
		msg := strings.ReplaceAll(s.settings.Load().Messages.ReloadError, "{error}", richtext.Escape(err.Error()))
		return s.reply(ctx, sender, msg)
	}
	return s.reply(ctx, sender, s.settings.Load().Messages.ReloadSuccess)
}

func (s *Service) openCommand(ctx context.Context, sender identity.Identity, rawOwner, rawKind string, st *Settings) error {
	if identity.IsConsoleKind(sender.Kind()) {
		return ErrNotAPlayer
	}
	owner, err := uuid.Parse(rawOwner)
	if err != nil {
		return s.reply(ctx, sender, st.Messages.UnknownCommand)
	}
	kind, ok := snapshot.ParseKind(rawKind)
	if !ok {
		return s.reply(ctx, sender, st.Messages.UnknownCommand)
	}
	return s.OpenView(ctx, sender, owner, kind)
}

// Complete suggests completions for an input buffer: subcommands for
// "/chatmanager <partial>", placeholder tokens for chat lines.
func (s *Service) Complete(buffer string) []string {
	if rest, ok := strings.CutPrefix(buffer, "/"+AdminCommand+" "); ok {
		if strings.Contains(rest, " ") {
			return nil
		}
		prefix := strings.ToLower(rest)
		var out []string
		for _, sub := range Subcommands {
			if strings.HasPrefix(sub, prefix) {
				out = append(out, sub)
			}
		}
		return out
	}
	return s.deps.Registry.Load().Completions(buffer)
}
