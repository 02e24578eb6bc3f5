package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tagname"
)

// CreateTag persists an empty shard for text. Input that normalises to
// nothing is ignored. Re-creating an existing tag only applies an explicit
// description.
func (m *Manager) CreateTag(ctx context.Context, text string, description *string) error {
	tag, ok := tagname.Canonical(text)
	if !ok {
		m.logger.Debug("ignoring invalid tag", slog.String("text", text))
		return nil
	}

	exists, err := m.store.Exists(ctx, tag)
	if err != nil {
		return fmt.Errorf("checking tag %s: %w", tag, err)
	}

	if exists {
		if description == nil {
			return nil
		}
		shard, err := m.store.Load(ctx, tag)
		if err != nil {
			return fmt.Errorf("loading shard %s: %w", tag, err)
		}
		shard.Description = *description
		return m.save(ctx, tag, shard)
	}

	shard := model.NewShard()
	if description != nil {
		shard.Description = *description
	}
	return m.save(ctx, tag, shard)
}

// existingTag canonicalises tag and reports whether its shard exists.
func (m *Manager) existingTag(ctx context.Context, tag string) (string, bool, error) {
	canon, ok := tagname.Canonical(tag)
	if !ok {
		return "", false, nil
	}
	exists, err := m.store.Exists(ctx, canon)
	if err != nil {
		return "", false, fmt.Errorf("checking tag %s: %w", canon, err)
	}
	return canon, exists, nil
}

// UpdateTag replaces the description of an existing tag.
func (m *Manager) UpdateTag(ctx context.Context, tag, description string) (bool, error) {
	canon, ok, err := m.existingTag(ctx, tag)
	if err != nil || !ok {
		return false, err
	}

	shard, err := m.store.Load(ctx, canon)
	if err != nil {
		return false, fmt.Errorf("loading shard %s: %w", canon, err)
	}
	shard.Description = description
	if err := m.save(ctx, canon, shard); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteTag removes a tag together with all of its tasks.
func (m *Manager) DeleteTag(ctx context.Context, tag string) (bool, error) {
	canon, ok, err := m.existingTag(ctx, tag)
	if err != nil || !ok {
		return false, err
	}

	if err := m.store.DeleteShard(ctx, canon); err != nil {
		return false, fmt.Errorf("deleting tag %s: %w", canon, err)
	}
	m.logger.Info("deleted tag", slog.String("tag", canon))
	return true, nil
}

// GetTagDetails returns the description and task counts of a tag.
func (m *Manager) GetTagDetails(ctx context.Context, tag string) (*model.TagDetails, error) {
	canon, ok, err := m.existingTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("tag %q: %w", tag, ErrNotFound)
	}

	shard, err := m.store.Load(ctx, canon)
	if err != nil {
		return nil, fmt.Errorf("loading shard %s: %w", canon, err)
	}

	details := &model.TagDetails{
		Tag:         canon,
		Description: shard.Description,
		TaskCount:   len(shard.Tasks),
	}
	for _, t := range shard.Tasks {
		if t.Status.Open() {
			details.OpenCount++
		}
	}
	return details, nil
}

// GetAllTags returns every tag with a shard, in no particular order.
func (m *Manager) GetAllTags(ctx context.Context) ([]string, error) {
	tags, err := m.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// TagSummaries returns details for every tag, the default tag first when it
// exists and the rest alphabetically.
func (m *Manager) TagSummaries(ctx context.Context) ([]model.TagDetails, error) {
	all, err := m.GetAllTags(ctx)
	if err != nil {
		return nil, err
	}

	first := ""
	for _, t := range all {
		if t == m.defaultTag {
			first = t
			break
		}
	}

	out := make([]model.TagDetails, 0, len(all))
	for _, tag := range tagname.SortForDisplay(all, first) {
		d, err := m.GetTagDetails(ctx, tag)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}
