package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/habedi/folio/client"
	"github.com/habedi/folio/pkg/hasher"
	"github.com/habedi/folio/pkg/pool"
	"github.com/habedi/folio/pkg/validation"
	"github.com/rs/zerolog/log"
)

// PostSource is the part of the API client an export reads from.
type PostSource interface {
	ListPosts(ctx context.Context) ([]client.Post, error)
	ListPostsByCategory(ctx context.Context, category string) ([]client.Post, error)
	ListComments(ctx context.Context, postID int) ([]client.Comment, error)
}

// ExportOptions controls ExportPosts.
type ExportOptions struct {
	Dir      string
	Category string // empty exports every post
	Threads  int
	HashAlgo string
	// OnPostDone, if set, is called once per post, including posts skipped after
	// cancellation. Calls may come from the worker goroutines.
	OnPostDone func()
}

// ExportedPost is the JSON document written for each post.
type ExportedPost struct {
	client.Post
	Comments   []client.Comment `json:"comments"`
	ExportedAt time.Time        `json:"exported_at"`
}

// ExportResult lists what an export wrote.
type ExportResult struct {
	Total    int
	Files    []string // names relative to the export directory, sorted
	Manifest string
	Failed   map[int]error // by post ID
}

// ManifestName is the checksum file written next to the exported posts.
func ManifestName(algo string) string {
	return strings.ToUpper(algo) + "SUMS"
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a post title into a file-name friendly string.
func Slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	if s == "" {
		return "post"
	}
	return s
}

// ExportPosts writes every post (with its comments) to opts.Dir as one JSON file per post,
// then writes a checksum manifest. A post whose comments cannot be fetched is skipped and
// reported in Failed; the rest are still exported.
func ExportPosts(ctx context.Context, src PostSource, opts ExportOptions) (*ExportResult, error) {
	if err := validation.ValidateNonEmptyString("export directory", opts.Dir); err != nil {
		return nil, err
	}
	if err := validation.ValidateThreadCount(opts.Threads); err != nil {
		return nil, err
	}
	if opts.HashAlgo == "" {
		opts.HashAlgo = "sha256"
	}
	if !hasher.IsValidHashAlgo(opts.HashAlgo) {
		return nil, fmt.Errorf("unsupported hash algorithm: %s", opts.HashAlgo)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var posts []client.Post
	var err error
	if opts.Category != "" {
		posts, err = src.ListPostsByCategory(ctx, opts.Category)
	} else {
		posts, err = src.ListPosts(ctx)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int("posts", len(posts)).Str("dir", opts.Dir).Msg("Exporting posts")

	now := time.Now().UTC()
	reported := make([]bool, len(posts))
	names, errs := pool.Map(ctx, posts, opts.Threads, func(ctx context.Context, i int, p client.Post) (string, error) {
		reported[i] = true
		if opts.OnPostDone != nil {
			defer opts.OnPostDone()
		}
		comments, err := src.ListComments(ctx, p.ID)
		if err != nil {
			return "", err
		}
		if comments == nil {
			comments = []client.Comment{}
		}
		name := fmt.Sprintf("%d-%s.json", p.ID, Slug(p.Title))
		data, err := json.MarshalIndent(ExportedPost{Post: p, Comments: comments, ExportedAt: now}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode post %d: %w", p.ID, err)
		}
		if err := os.WriteFile(filepath.Join(opts.Dir, name), data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write post %d: %w", p.ID, err)
		}
		return name, nil
	})

	res := &ExportResult{Total: len(posts), Failed: map[int]error{}}
	for i, p := range posts {
		if !reported[i] && opts.OnPostDone != nil {
			opts.OnPostDone()
		}
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Int("post", p.ID).Msg("Post not exported")
			res.Failed[p.ID] = errs[i]
			continue
		}
		res.Files = append(res.Files, names[i])
	}
	sort.Strings(res.Files)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Manifest, err = writeManifest(opts.Dir, res.Files, opts.HashAlgo)
	if err != nil {
		return res, err
	}
	return res, nil
}

func writeManifest(dir string, files []string, algo string) (string, error) {
	var b strings.Builder
	for _, name := range files {
		sum, err := hasher.GenerateHash(filepath.Join(dir, name), algo)
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", name, err)
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, name)
	}
	path := filepath.Join(dir, ManifestName(algo))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
