package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"example.com/twitterfeed/internal/auth"
	"example.com/twitterfeed/internal/models"
	"example.com/twitterfeed/internal/store"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML document loaded by the seed command.
type Fixture struct {
	Users   []FixtureUser   `yaml:"users"`
	Follows []FixtureFollow `yaml:"follows,omitempty"`
	Tweets  []FixtureTweet  `yaml:"tweets,omitempty"`
	Likes   []FixtureLike   `yaml:"likes,omitempty"`
	Replies []FixtureReply  `yaml:"replies,omitempty"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Gender   string `yaml:"gender,omitempty"`
}

type FixtureFollow struct {
	Follower  string `yaml:"follower"`
	Following string `yaml:"following"`
}

// FixtureTweet is referenced from likes and replies by Ref.
type FixtureTweet struct {
	Ref      string `yaml:"ref"`
	User     string `yaml:"user"`
	Tweet    string `yaml:"tweet"`
	DateTime string `yaml:"date_time,omitempty"`
}

type FixtureLike struct {
	User  string `yaml:"user"`
	Tweet string `yaml:"tweet"`
}

type FixtureReply struct {
	User  string `yaml:"user"`
	Tweet string `yaml:"tweet"`
	Reply string `yaml:"reply"`
}

// LoadFixture reads and parses a fixture file. Unknown fields are rejected.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fx Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := fx.validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &fx, nil
}

// validate checks references between sections before anything is written.
func (fx *Fixture) validate() error {
	users := map[string]bool{}
	for i, u := range fx.Users {
		if u.Username == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		users[u.Username] = true
	}
	known := func(name string) bool { return users[name] }

	for i, f := range fx.Follows {
		if !known(f.Follower) || !known(f.Following) {
			return fmt.Errorf("follows[%d]: unknown user", i)
		}
	}

	tweets := map[string]bool{}
	for i, t := range fx.Tweets {
		if t.Ref == "" {
			return fmt.Errorf("tweets[%d]: ref is required", i)
		}
		if tweets[t.Ref] {
			return fmt.Errorf("tweets[%d]: duplicate ref %q", i, t.Ref)
		}
		if !known(t.User) {
			return fmt.Errorf("tweets[%d]: unknown user %q", i, t.User)
		}
		if t.DateTime != "" {
			if _, err := time.Parse(models.DateTimeLayout, t.DateTime); err != nil {
				return fmt.Errorf("tweets[%d]: date_time: %w", i, err)
			}
		}
		tweets[t.Ref] = true
	}

	for i, l := range fx.Likes {
		if !known(l.User) || !tweets[l.Tweet] {
			return fmt.Errorf("likes[%d]: unknown user or tweet", i)
		}
	}
	for i, r := range fx.Replies {
		if !known(r.User) || !tweets[r.Tweet] {
			return fmt.Errorf("replies[%d]: unknown user or tweet", i)
		}
	}
	return nil
}

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Users, Follows, Tweets, Likes, Replies int
}

// Seed writes fx into st. Users go through registration so passwords are
// hashed and validated; users that already exist are reused.
func Seed(ctx context.Context, st store.StoreInterface, hasher auth.PasswordHasher, fx *Fixture, now time.Time) (SeedResult, error) {
	var res SeedResult
	registrar := auth.NewService(st, hasher, nil)

	ids := map[string]int64{}
	for _, u := range fx.Users {
		err := registrar.Register(ctx, auth.Registration{
			Username: u.Username,
			Password: u.Password,
			Name:     u.Name,
			Gender:   u.Gender,
		})
		switch {
		case err == nil:
			res.Users++
		case models.KindOf(err) == models.KindConflict:
			logg.Info("cli", "Fixture user already exists, reusing it")
		default:
			return res, fmt.Errorf("user %q: %w", u.Username, err)
		}

		user, err := st.GetUserByUsername(ctx, u.Username)
		if err != nil {
			return res, fmt.Errorf("user %q: %w", u.Username, err)
		}
		ids[u.Username] = user.ID
	}

	for _, f := range fx.Follows {
		if err := st.AddFollow(ctx, models.Follow{
			FollowerUserID:  ids[f.Follower],
			FollowingUserID: ids[f.Following],
		}); err != nil {
			return res, err
		}
		res.Follows++
	}

	stamp := models.Stamp(now)
	tweetIDs := map[string]int64{}
	for _, t := range fx.Tweets {
		dt := t.DateTime
		if dt == "" {
			dt = stamp
		}
		id, err := st.AddTweet(ctx, models.Tweet{Tweet: t.Tweet, UserID: ids[t.User], DateTime: dt})
		if err != nil {
			return res, err
		}
		tweetIDs[t.Ref] = id
		res.Tweets++
	}

	for _, l := range fx.Likes {
		if err := st.AddLike(ctx, ids[l.User], tweetIDs[l.Tweet], stamp); err != nil {
			return res, err
		}
		res.Likes++
	}

	for _, r := range fx.Replies {
		if err := st.AddReply(ctx, ids[r.User], tweetIDs[r.Tweet], r.Reply, stamp); err != nil {
			return res, err
		}
		res.Replies++
	}

	return res, nil
}
