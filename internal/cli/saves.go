package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
	"github.com/tmarche/fabula/pkg/schema"
)

// RunSavesList prints every save key in the configured store, with size and
// timestamp when the backend records them.
func RunSavesList(cfg Config) error {
	backend, err := BuildBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := context.Background()
	keys, err := backend.Store.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list saves: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("No saves found.")
		return nil
	}

	meta, _ := backend.Store.(ports.MetadataProvider)
	for _, key := range keys {
		if meta != nil {
			if m, err := meta.GetMetadata(ctx, key); err == nil {
				fmt.Printf("%s\t%d bytes\t%s\n", key, m.Size, m.UpdatedAt.Format("2006-01-02 15:04:05"))
				continue
			}
		}
		fmt.Println(key)
	}
	return nil
}

// RunSaveInspect decodes one save and prints its envelope header and payload
// as indented JSON. The checksum is reported but not enforced, so damaged
// saves can still be examined.
func RunSaveInspect(cfg Config, key string) error {
	backend, err := BuildBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	data, err := backend.Store.Load(context.Background(), key)
	if err != nil {
		return fmt.Errorf("failed to load save %q: %w", key, err)
	}

	env, err := schema.Decode(data)
	if err != nil {
		return fmt.Errorf("save %q is not a valid envelope: %w", key, err)
	}
	payload, err := schema.Deserialize(env, schema.DecodeOptions{})
	if err != nil {
		return err
	}

	fmt.Printf("schema version: %d\n", env.Version)
	fmt.Printf("engine version: %s\n", env.EngineVersion)
	fmt.Printf("saved at:       %s\n", env.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("checksum:       %s\n\n", env.Checksum)

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render payload: %w", err)
	}
	fmt.Println(string(pretty))

	if len(payload.Checkpoints) > 1 {
		fmt.Println("\ncheckpoint drift:")
		for i := 1; i < len(payload.Checkpoints); i++ {
			prev, next := payload.Checkpoints[i-1], payload.Checkpoints[i]
			if prev.State == nil || next.State == nil {
				continue
			}
			fmt.Printf("  %s -> %s: %s\n", shortID(prev.ID), shortID(next.ID),
				describeDrift(domain.Diff(prev.State, next.State)))
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func describeDrift(d *domain.StateDiff) string {
	if d == nil {
		return "no change"
	}
	var parts []string
	if d.CurrentNodeID != nil {
		parts = append(parts, fmt.Sprintf("now at %q", *d.CurrentNodeID))
	}
	if d.HistoryDelta != nil {
		if n := len(d.HistoryDelta.Appended); n > 0 {
			parts = append(parts, fmt.Sprintf("%d visited", n))
		}
		if d.HistoryDelta.Truncated > 0 {
			parts = append(parts, fmt.Sprintf("%d undone", d.HistoryDelta.Truncated))
		}
	}
	if len(d.Flags) > 0 {
		keys := make([]string, 0, len(d.Flags))
		for k := range d.Flags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts = append(parts, "flags: "+strings.Join(keys, ", "))
	}
	if len(parts) == 0 {
		return "no change"
	}
	return strings.Join(parts, "; ")
}

// RunSavesRemove deletes the given saves, reporting each outcome. One
// failure does not stop the rest.
func RunSavesRemove(cfg Config, keys []string) error {
	backend, err := BuildBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := context.Background()
	var failed bool
	for _, key := range keys {
		if err := backend.Store.Delete(ctx, key); err != nil {
			fmt.Printf("Error removing %q: %v\n", key, err)
			failed = true
			continue
		}
		fmt.Printf("Removed %q.\n", key)
	}
	if failed {
		return fmt.Errorf("some saves could not be removed")
	}
	return nil
}
