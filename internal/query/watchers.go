package query

import (
	"context"

	"github.com/fishlogapp/fishlog-go/internal/api"
	"github.com/fishlogapp/fishlog-go/internal/models"
)

// Per-collection watcher constructors, mirroring the service defaults for
// sort and expand when the params leave them empty.

func ForCatches(svc *api.CatchService) *Watcher[models.Catch] {
	return NewWatcher(func(ctx context.Context, p Params) ([]models.Catch, error) {
		list, err := svc.List(ctx, listOptions(p))
		if err != nil {
			return nil, err
		}
		return list.Items, nil
	})
}

func ForGroups(svc *api.GroupService) *Watcher[models.FishingGroup] {
	return NewWatcher(func(ctx context.Context, p Params) ([]models.FishingGroup, error) {
		list, err := svc.List(ctx, listOptions(p))
		if err != nil {
			return nil, err
		}
		return list.Items, nil
	})
}

func ForEvents(svc *api.EventService) *Watcher[models.Event] {
	return NewWatcher(func(ctx context.Context, p Params) ([]models.Event, error) {
		list, err := svc.List(ctx, listOptions(p))
		if err != nil {
			return nil, err
		}
		return list.Items, nil
	})
}

func ForChallenges(svc *api.ChallengeService) *Watcher[models.Challenge] {
	return NewWatcher(func(ctx context.Context, p Params) ([]models.Challenge, error) {
		list, err := svc.List(ctx, listOptions(p))
		if err != nil {
			return nil, err
		}
		return list.Items, nil
	})
}

// UserCatchParams scopes a catches watcher to one owner, optionally narrowed
// by an extra filter expression.
func UserCatchParams(userID, extra string) Params {
	return Params{Filter: api.FilterAnd(api.FilterByUser(userID), extra)}
}

// MemberGroupParams scopes a groups watcher to groups the user belongs to.
func MemberGroupParams(userID, extra string) Params {
	return Params{Filter: api.FilterAnd(api.FilterMemberOf(userID), extra)}
}

// GroupCatchParams scopes a catches watcher to catches shared with a group.
func GroupCatchParams(groupID string) Params {
	return Params{Filter: api.FilterSharedWithGroup(groupID)}
}

func listOptions(p Params) api.ListOptions {
	return api.ListOptions{Filter: p.Filter, Sort: p.Sort, Expand: p.Expand}
}
