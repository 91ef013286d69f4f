package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"postcraft/pkg/caption"
	"postcraft/pkg/config"
	"postcraft/pkg/database"
	"postcraft/pkg/jwt"
	"postcraft/pkg/lock"
	"postcraft/pkg/logger"
	"postcraft/pkg/safety"
	"postcraft/services/post/internal/entity"
	"postcraft/services/post/internal/repo/persistent"
	"postcraft/services/post/internal/usecase"
)

type demoPost struct {
	caption   string
	cta       string
	hashtags  []string
	platforms []caption.Platform
	// how far along the lifecycle to drive the post
	target entity.PostStatus
}

var demoPosts = []demoPost{
	{
		caption:   "Our autumn roast is here: notes of cocoa and toasted hazelnut.",
		cta:       "Grab a bag in store this weekend.",
		hashtags:  []string{"#coffee", "#autumnroast", "#smallbatch"},
		platforms: []caption.Platform{caption.PlatformInstagram, caption.PlatformFacebook},
		target:    entity.StatusDraft,
	},
	{
		caption:   "Latte art class every Saturday at 10am. Only 8 seats per class.",
		cta:       "Reserve a seat at the link in our bio.",
		hashtags:  []string{"#latteart", "#coffeeclass", "#weekend"},
		platforms: []caption.Platform{caption.PlatformInstagram},
		target:    entity.StatusPendingApproval,
	},
	{
		caption:   "We now open at 6:30am on weekdays so your commute starts with a flat white.",
		cta:       "See you tomorrow morning.",
		hashtags:  []string{"#earlybird", "#flatwhite", "#commute"},
		platforms: []caption.Platform{caption.PlatformX, caption.PlatformLinkedIn},
		target:    entity.StatusApproved,
	},
	{
		caption:   "Pumpkin loaf is back for three weeks only.",
		cta:       "Order ahead in the app.",
		hashtags:  []string{"#pumpkin", "#bakery", "#seasonal"},
		platforms: []caption.Platform{caption.PlatformInstagram, caption.PlatformTikTok},
		target:    entity.StatusScheduled,
	},
}

func main() {
	var (
		ownerID = flag.String("owner", "demo-owner", "owner id for the seeded posts")
		adminID = flag.String("admin", "demo-admin", "admin id used to approve posts")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.NewWithService("seed")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	postUseCase := usecase.NewPostUseCase(
		persistent.NewPostRepository(db),
		safety.NewDefault(),
		lock.NewLocalLocker(),
		nil, nil, nil, nil,
		log,
	)

	owner := entity.Actor{UserID: *ownerID, Role: jwt.RoleMember}
	admin := entity.Actor{UserID: *adminID, Role: jwt.RoleAdmin}

	if err := seedPosts(context.Background(), postUseCase, owner, admin, log); err != nil {
		log.Error("Failed to seed posts: %v", err)
		panic(err)
	}

	// Tokens for trying the API against the seeded data
	jwtService := jwt.NewService(cfg.JWTSecret)
	for _, actor := range []entity.Actor{owner, admin} {
		token, err := jwtService.GenerateToken(actor.UserID, actor.Role)
		if err != nil {
			log.Error("Failed to issue token for %s: %v", actor.UserID, err)
			continue
		}
		fmt.Printf("%s (%s): Bearer %s\n", actor.UserID, actor.Role, token)
	}

	log.Info("Database seeded successfully!")
}

func seedPosts(ctx context.Context, uc usecase.PostUseCase, owner, admin entity.Actor, log *logger.Logger) error {
	// Stagger scheduled posts a day apart so they never share a window
	slot := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)

	for _, demo := range demoPosts {
		post, err := uc.CreatePost(ctx, owner, usecase.CreatePostInput{
			Caption:   demo.caption,
			Hashtags:  demo.hashtags,
			CTA:       demo.cta,
			Platforms: demo.platforms,
		})
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}

		steps := []struct {
			reached entity.PostStatus
			run     func() (*entity.Post, error)
		}{
			{entity.StatusPendingApproval, func() (*entity.Post, error) { return uc.Submit(ctx, owner, post.ID) }},
			{entity.StatusApproved, func() (*entity.Post, error) { return uc.Approve(ctx, admin, post.ID) }},
			{entity.StatusScheduled, func() (*entity.Post, error) { return uc.Schedule(ctx, owner, post.ID, slot) }},
		}
		for _, step := range steps {
			if statusRank(demo.target) < statusRank(step.reached) {
				break
			}
			if post, err = step.run(); err != nil {
				return fmt.Errorf("failed to move post to %s: %w", step.reached, err)
			}
		}
		if post.Status == entity.StatusScheduled {
			slot = slot.Add(24 * time.Hour)
		}

		log.Info("Seeded post %s (%s)", post.ID, post.Status)
	}
	return nil
}

func statusRank(s entity.PostStatus) int {
	switch s {
	case entity.StatusPendingApproval:
		return 1
	case entity.StatusApproved:
		return 2
	case entity.StatusScheduled:
		return 3
	default:
		return 0
	}
}
