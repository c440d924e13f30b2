package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/router"
)

// Fixture is a YAML description of demo data. Users are referenced by email
// everywhere else in the file, groups by name.
type Fixture struct {
	Users   []UserFixture   `yaml:"users"`
	Friends []FriendFixture `yaml:"friends"`
	Groups  []GroupFixture  `yaml:"groups"`
	Memos   []MemoFixture   `yaml:"memos"`
}

type UserFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type FriendFixture struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Accept bool   `yaml:"accept"`
}

type GroupFixture struct {
	Name    string            `yaml:"name"`
	Owner   string            `yaml:"owner"`
	Members []string          `yaml:"members"`
	Roles   map[string]string `yaml:"roles"`
}

type MemoFixture struct {
	Title   string   `yaml:"title"`
	Content string   `yaml:"content"`
	Place   string   `yaml:"place"`
	Lat     *float64 `yaml:"lat"`
	Lon     *float64 `yaml:"lon"`
	Creator string   `yaml:"creator"`
	Group   string   `yaml:"group"`
}

func decodeFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

// seeder applies a fixture through the service layer so every rule the API
// enforces also holds for seeded data.
type seeder struct {
	svc    *router.Services
	logger *logrus.Logger
	users  map[string]uint
	groups map[string]uint
}

func newSeeder(svc *router.Services, logger *logrus.Logger) *seeder {
	return &seeder{svc: svc, logger: logger, users: map[string]uint{}, groups: map[string]uint{}}
}

func (s *seeder) user(email string) (uint, error) {
	id, ok := s.users[email]
	if !ok {
		return 0, fmt.Errorf("unknown user %q", email)
	}
	return id, nil
}

func (s *seeder) Apply(ctx context.Context, f *Fixture) error {
	for _, u := range f.Users {
		created, err := s.svc.Users.Signup(ctx, models.CreateLocalUserRequest{Name: u.Name, Email: u.Email, Password: u.Password})
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		s.users[u.Email] = created.ID
	}
	s.logger.WithField("count", len(f.Users)).Info("users seeded")

	for _, fr := range f.Friends {
		from, err := s.user(fr.From)
		if err != nil {
			return err
		}
		to, err := s.user(fr.To)
		if err != nil {
			return err
		}
		if _, _, err := s.svc.Friends.SendRequest(ctx, from, to); err != nil {
			return fmt.Errorf("friend request %s -> %s: %w", fr.From, fr.To, err)
		}
		if fr.Accept {
			if _, err := s.svc.Friends.AcceptRequest(ctx, from, to); err != nil {
				return fmt.Errorf("accept %s -> %s: %w", fr.From, fr.To, err)
			}
		}
	}

	for _, g := range f.Groups {
		if err := s.applyGroup(ctx, g); err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}
	}
	s.logger.WithField("count", len(f.Groups)).Info("groups seeded")

	for _, m := range f.Memos {
		creator, err := s.user(m.Creator)
		if err != nil {
			return err
		}
		in := models.MemoInput{Title: m.Title, Content: m.Content, Place: m.Place, Lat: m.Lat, Lon: m.Lon}
		if m.Group != "" {
			groupID, ok := s.groups[m.Group]
			if !ok {
				return fmt.Errorf("memo %s: unknown group %q", m.Title, m.Group)
			}
			in.GroupID = &groupID
		}
		if _, err := s.svc.Memos.Create(ctx, creator, in); err != nil {
			return fmt.Errorf("memo %s: %w", m.Title, err)
		}
	}
	s.logger.WithField("count", len(f.Memos)).Info("memos seeded")
	return nil
}

func (s *seeder) applyGroup(ctx context.Context, g GroupFixture) error {
	owner, err := s.user(g.Owner)
	if err != nil {
		return err
	}
	members := make([]uint, 0, len(g.Members))
	for _, email := range g.Members {
		id, err := s.user(email)
		if err != nil {
			return err
		}
		members = append(members, id)
	}
	group, err := s.svc.Groups.CreateGroup(ctx, g.Name, owner, members)
	if err != nil {
		return err
	}
	s.groups[g.Name] = group.ID

	for email, name := range g.Roles {
		target, err := s.user(email)
		if err != nil {
			return err
		}
		role, err := models.ParseRole(name)
		if err != nil {
			return fmt.Errorf("role for %s: %w", email, err)
		}
		if _, err := s.svc.Groups.UpdateRole(ctx, group.ID, owner, target, role); err != nil {
			return fmt.Errorf("role for %s: %w", email, err)
		}
	}
	return nil
}
