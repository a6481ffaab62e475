package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/internal/dto"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type seedFlags struct {
	config    string
	workspace string
	owner     string
	count     int
	members   []string // uid:role
}

var seedTopics = []string{"kafka", "planning", "release", "oncall", "budget", "design", "hiring", "roadmap"}

func init() {
	seedEnv := new(seedFlags)

	var seedCommand = &cobra.Command{
		Use:   "seed [-c config_file] [-w workspace] [-o owner] [-n count]",
		Short: "Create a workspace with demo notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(seedEnv.config, false)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := seedWorkspace(ctx, a.WorkspaceRepo, seedEnv); err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			if n := a.Config().WorkerPool.MaxWorkers; n > 0 {
				g.SetLimit(n)
			}
			for i := 0; i < seedEnv.count; i++ {
				req := seedNote(seedEnv.workspace, i)
				g.Go(func() error {
					return a.WorkerPool().Submit(gctx, func(ctx context.Context) error {
						_, err := a.NoteService.Create(ctx, seedEnv.owner, req)
						return err
					})
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("seed notes: %w", err)
			}

			a.Logger().Info("seed completed",
				zap.String("workspace", seedEnv.workspace),
				zap.Int("notes", seedEnv.count))
			fmt.Printf("seeded %d notes into workspace %s\n", seedEnv.count, seedEnv.workspace)
			return nil
		},
	}

	rootCmd.AddCommand(seedCommand)
	fs := seedCommand.Flags()
	fs.StringVarP(&seedEnv.config, "config", "c", "", "config file")
	fs.StringVarP(&seedEnv.workspace, "workspace", "w", "demo", "workspace id")
	fs.StringVarP(&seedEnv.owner, "owner", "o", "admin", "workspace owner and note author")
	fs.IntVarP(&seedEnv.count, "count", "n", 400, "number of notes")
	fs.StringSliceVar(&seedEnv.members, "member", nil, "extra member as uid:role, repeatable")
}

// seedWorkspace 创建工作区（已存在则跳过）并写入成员
func seedWorkspace(ctx context.Context, repo domain.WorkspaceRepository, f *seedFlags) error {
	if _, err := repo.GetByID(ctx, f.workspace); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if _, err := repo.Create(ctx, &domain.Workspace{ID: f.workspace, Name: f.workspace, OwnerID: f.owner}); err != nil {
			return err
		}
	}

	members := []*domain.WorkspaceMember{{WorkspaceID: f.workspace, UserID: f.owner, Role: domain.RoleOwner}}
	for _, m := range f.members {
		uid, role, ok := strings.Cut(m, ":")
		if !ok || uid == "" || !domain.Role(role).Valid() {
			return fmt.Errorf("invalid member %q, want uid:owner|editor|viewer", m)
		}
		members = append(members, &domain.WorkspaceMember{WorkspaceID: f.workspace, UserID: uid, Role: domain.Role(role)})
	}
	for _, m := range members {
		if _, err := repo.UpsertMember(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func seedNote(workspace string, i int) *dto.NoteCreateRequest {
	topic := seedTopics[i%len(seedTopics)]
	other := seedTopics[(i/len(seedTopics))%len(seedTopics)]
	return &dto.NoteCreateRequest{
		WorkspaceID: workspace,
		NoteType:    "note",
		Title:       fmt.Sprintf("%s notes #%d", topic, i),
		Fields: []dto.NoteFieldDTO{
			{Label: "body", Type: "text", Content: fmt.Sprintf("%s follow-up about %s, item %d", topic, other, i)},
		},
		Tags: []string{topic, other},
	}
}
