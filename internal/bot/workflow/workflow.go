// Package workflow implements the verification decision engine: it turns a
// routed message into a fetched profile, scans the evidence for proof,
// applies the duplicate policies and, on success, commits state and fans
// out notifications.
//
// One call to Verify handles one attempt end to end. Attempts may run
// concurrently; the only cross-attempt coordination is a per-forum-ID lock
// held across the duplicate-check-and-commit sequence.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/skobelev/gatewarden/internal/bot/config"
	"github.com/skobelev/gatewarden/internal/bot/evidence"
	"github.com/skobelev/gatewarden/internal/bot/identity"
	"github.com/skobelev/gatewarden/internal/bot/link"
	"github.com/skobelev/gatewarden/internal/bot/platform"
	"github.com/skobelev/gatewarden/internal/logging"
)

// Service runs verification attempts against the identity store and the
// platform collaborators.
type Service struct {
	store    *identity.Store
	fetcher  evidence.Fetcher
	notifier platform.Notifier
	members  platform.MemberDirectory
	roles    platform.RoleGranter
	logger   logging.Logger

	verifyURLPrefix string
	verifiedRoleID  string
	messages        config.Messages

	// channel IDs are resolved by the platform adapter once it has
	// connected, after the Service is constructed
	chmu            sync.Mutex
	publicChannelID string
	modChannelID    string

	forumLocks *keyedMutex
}

// NewService wires a workflow service. Channel IDs are unset until the
// adapter calls SetChannels.
func NewService(
	store *identity.Store,
	fetcher evidence.Fetcher,
	notifier platform.Notifier,
	members platform.MemberDirectory,
	roles platform.RoleGranter,
	cfg *config.Config,
	logger logging.Logger,
) *Service {
	return &Service{
		store:           store,
		fetcher:         fetcher,
		notifier:        notifier,
		members:         members,
		roles:           roles,
		logger:          logger,
		verifyURLPrefix: cfg.VerifyURLPrefix,
		verifiedRoleID:  cfg.VerifiedRoleID,
		messages:        cfg.Messages,
		forumLocks:      newKeyedMutex(),
	}
}

// SetChannels records the resolved public-announcement and moderator
// channel IDs. Either may be empty, which disables the corresponding
// message fan-out.
func (s *Service) SetChannels(publicID, modID string) {
	s.chmu.Lock()
	defer s.chmu.Unlock()
	s.publicChannelID = publicID
	s.modChannelID = modID
}

func (s *Service) channels() (publicID, modID string) {
	s.chmu.Lock()
	defer s.chmu.Unlock()
	return s.publicChannelID, s.modChannelID
}

// Verify processes one verification attempt. All decision outcomes (no
// link, invalid link, fetch failure, missing proof, duplicates, success)
// are handled internally, including user notification; the returned error
// reports internal failures only (the platform rejecting a send, the log
// file rejecting an append), which the caller is expected to log.
func (s *Service) Verify(ctx context.Context, msg platform.Message) error {
	verifyLink, err := link.Extract(msg.Text, s.verifyURLPrefix)
	if err != nil {
		// a generic URL that is not a verification link
		return s.notifyUser(ctx, msg.AuthorID, s.messages.InvalidLink)
	}
	if verifyLink == "" {
		// plain conversation, stay silent
		return nil
	}

	log := s.logger.With(
		"attempt_id", uuid.NewString(),
		"user_id", msg.AuthorID,
		"link", verifyLink,
	)
	log.Info(ctx, "verification attempt started")

	vars := templateVars(msg, verifyLink, "")

	posts, err := s.fetcher.Fetch(ctx, verifyLink)
	if err != nil {
		log.Warn(ctx, "verification page fetch failed", "error", err)
		return s.notifyUser(ctx, msg.AuthorID, s.messages.VerificationError)
	}

	if !scanForProof(posts, msg.AuthorID) {
		log.Info(ctx, "no verification post found")
		return s.notifyUser(ctx, msg.AuthorID, config.Expand(s.messages.MissingProof, vars))
	}

	forumID, err := link.ForumID(verifyLink, s.verifyURLPrefix)
	if err != nil {
		log.Info(ctx, "no forum identifier in link")
		return s.notifyUser(ctx, msg.AuthorID, config.Expand(s.messages.MalformedLink, vars))
	}
	vars["forum_id"] = forumID
	log = log.With("forum_id", forumID)

	// hold the per-forum-ID lock from the duplicate checks through the
	// commit, so the same forum account is consumed at most once even
	// under concurrent submission
	unlock := s.forumLocks.lock(forumID)
	defer unlock()

	dupe, err := s.duplicateName(ctx, msg.AuthorName)
	if err != nil {
		log.Error(ctx, "member listing failed during duplicate-name check", "error", err)
		return s.notifyUser(ctx, msg.AuthorID, s.messages.VerificationError)
	}
	if dupe {
		log.Info(ctx, "duplicate display name, not granting")
		return s.rejectDuplicate(ctx, msg, vars, s.messages.DuplicateName, s.messages.DuplicateNameMods, log)
	}

	if s.store.ForumIDUsed(forumID) {
		log.Info(ctx, "forum account already used, not granting")
		return s.rejectDuplicate(ctx, msg, vars, s.messages.DuplicateForum, s.messages.DuplicateForumMods, log)
	}

	return s.grant(ctx, msg, forumID, vars, log)
}

// SendHelp delivers the help message to the author privately.
func (s *Service) SendHelp(ctx context.Context, userID, userName, mention string) error {
	vars := map[string]string{
		"name":         userName,
		"mention_name": mention,
		"id":           userID,
	}
	return s.notifyUser(ctx, userID, config.Expand(s.messages.Help, vars))
}

// SendWelcome posts the public welcome for a newly joined member, when a
// public channel is configured.
func (s *Service) SendWelcome(ctx context.Context, userID, userName, mention string) error {
	publicID, _ := s.channels()
	if publicID == "" {
		return nil
	}
	vars := map[string]string{
		"name":         userName,
		"mention_name": mention,
		"id":           userID,
	}
	return s.notifier.SendChannel(ctx, publicID, config.Expand(s.messages.Welcome, vars))
}

// scanForProof returns true when an evidence string contains both the
// literal user ID and the word "discord" (case-insensitive). Posts are
// scanned in document order and scanning stops at the first match.
func scanForProof(posts []string, userID string) bool {
	for _, post := range posts {
		if strings.Contains(post, userID) && strings.Contains(strings.ToLower(post), "discord") {
			return true
		}
	}
	return false
}

// duplicateName reports whether more than one guild member (the requester
// included) carries the display name, compared case-insensitively. This is
// an impersonation heuristic; homoglyph variants are not caught.
func (s *Service) duplicateName(ctx context.Context, name string) (bool, error) {
	members, err := s.members.Members(ctx)
	if err != nil {
		return false, err
	}

	count := 0
	for _, m := range members {
		if strings.EqualFold(m.DisplayName, name) {
			count++
		}
	}
	return count > 1, nil
}

// rejectDuplicate notifies the requester and, at most once per user per
// process lifetime, alerts the moderator channel with the would-be public
// announcement plus a duplicate-specific addendum.
func (s *Service) rejectDuplicate(ctx context.Context, msg platform.Message, vars map[string]string, userMsg, modAddendum string, log logging.Logger) error {
	if err := s.notifyUser(ctx, msg.AuthorID, config.Expand(userMsg, vars)); err != nil {
		log.Warn(ctx, "duplicate notice delivery failed", "error", err)
	}

	_, modID := s.channels()
	if modID == "" || !s.store.MarkEscalated(msg.AuthorID) {
		return nil
	}

	text := config.Expand(s.messages.PublicSuccess, vars) + config.Expand(modAddendum, vars)
	if err := s.notifier.SendChannel(ctx, modID, text); err != nil {
		log.Warn(ctx, "moderator escalation delivery failed", "error", err)
		return fmt.Errorf("escalating to moderators: %w", err)
	}
	return nil
}

// grant runs the success path: resolve the membership record, assign the
// verified role, durably consume the forum identifier, then notify. The
// forum ID reaches disk before any user-facing confirmation is sent.
func (s *Service) grant(ctx context.Context, msg platform.Message, forumID string, vars map[string]string, log logging.Logger) error {
	member, err := s.members.Member(ctx, msg.AuthorID)
	if err != nil {
		// internal inconsistency: the requester passed classification
		// but is not a resolvable member; must be operator-visible
		log.Error(ctx, "cannot resolve member on grant path", "error", err)
		return fmt.Errorf("resolving member %s: %w", msg.AuthorID, err)
	}

	if err := s.roles.GrantRole(ctx, member.UserID, s.verifiedRoleID); err != nil {
		log.Error(ctx, "role grant failed", "error", err)
		if nerr := s.notifyUser(ctx, msg.AuthorID, s.messages.VerificationError); nerr != nil {
			log.Warn(ctx, "failure notice delivery failed", "error", nerr)
		}
		return fmt.Errorf("granting role: %w", err)
	}

	if err := s.store.ConsumeForumID(forumID); err != nil {
		log.Error(ctx, "recording forum ID failed", "error", err)
		return fmt.Errorf("recording forum ID %s: %w", forumID, err)
	}

	if err := s.notifyUser(ctx, msg.AuthorID, config.Expand(s.messages.PrivateSuccess, vars)); err != nil {
		log.Warn(ctx, "success notice delivery failed", "error", err)
	}

	publicID, _ := s.channels()
	if publicID != "" {
		if err := s.notifier.SendChannel(ctx, publicID, config.Expand(s.messages.PublicSuccess, vars)); err != nil {
			log.Warn(ctx, "public announcement delivery failed", "error", err)
		}
	}

	s.store.AddVerified(msg.AuthorID)
	log.Info(ctx, "user verified")
	return nil
}

func (s *Service) notifyUser(ctx context.Context, userID, text string) error {
	if err := s.notifier.SendDirect(ctx, userID, text); err != nil {
		return fmt.Errorf("notifying user %s: %w", userID, err)
	}
	return nil
}

func templateVars(msg platform.Message, verifyLink, forumID string) map[string]string {
	mention := msg.Mention
	if mention == "" {
		mention = msg.AuthorName
	}
	return map[string]string{
		"name":         msg.AuthorName,
		"mention_name": mention,
		"id":           msg.AuthorID,
		"link":         verifyLink,
		"forum_id":     forumID,
	}
}
