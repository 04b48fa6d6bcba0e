package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/habedi/folio/client"
	"github.com/habedi/folio/pkg/clierr"
	"github.com/habedi/folio/pkg/hasher"
	"github.com/habedi/folio/pkg/operations"
	"github.com/habedi/folio/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func postCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Read and manage posts",
	}
	cmd.AddCommand(
		postListCmd(a),
		postShowCmd(a),
		postCreateCmd(a),
		postEditCmd(a),
		postDeleteCmd(a),
		postExportCmd(a),
		postVerifyCmd(),
	)
	return cmd
}

func postListCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, optionally only one category",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filter := category
			if filter != "" {
				if err := validation.ValidateCategory(filter, validation.Categories); err != nil {
					cmd.Printf("Unknown category %q, showing all posts.\n", filter)
					filter = ""
				}
			}

			var posts []client.Post
			var err error
			if filter != "" {
				posts, err = a.api.ListPostsByCategory(ctx, filter)
			} else {
				posts, err = a.api.ListPosts(ctx)
			}
			if err != nil {
				return err
			}

			if len(posts) == 0 {
				cmd.Println("No posts found.")
				return nil
			}
			table := newTable(cmd.OutOrStdout(), []string{"ID", "Title", "Category", "Author", "Comments", "Created"})
			for _, p := range posts {
				table.Append([]string{
					strconv.Itoa(p.ID),
					oneLine(p.Title, 60),
					p.Category,
					p.AuthorName,
					strconv.Itoa(p.CommentsCount),
					p.CreatedAt,
				})
			}
			table.Render()
			log.Info().Msgf("Listed %d posts.", len(posts))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&category, "category", "k", "", "Only show posts in this category")
	return cmd
}

func postShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			post, err := a.api.GetPost(ctx, id)
			if err != nil {
				return err
			}
			comments, err := a.api.ListComments(ctx, id)
			if err != nil {
				return err
			}

			cmd.Printf("Post %d: %s\n", post.ID, post.Title)
			cmd.Printf("Category: %s\n", post.Category)
			cmd.Printf("Author: %s\n", post.AuthorName)
			cmd.Printf("Created: %s\n", post.CreatedAt)
			cmd.Println()
			cmd.Println(post.Content)
			cmd.Println()

			if len(comments) == 0 {
				cmd.Println("No comments yet.")
				return nil
			}
			cmd.Printf("Comments (%d):\n", len(comments))
			table := newTable(cmd.OutOrStdout(), []string{"ID", "Author", "Comment", "Created"})
			for _, c := range comments {
				table.Append([]string{strconv.Itoa(c.ID), c.AuthorName, oneLine(c.Text, 80), c.CreatedAt})
			}
			table.Render()
			return nil
		}),
	}
}

func postCreateCmd(a *app) *cobra.Command {
	var title, content, contentFile, category string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			body := content
			if contentFile != "" {
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return clierr.New(clierr.Validation, fmt.Sprintf("Cannot read %s: %v", contentFile, err), err)
				}
				body = string(data)
			}
			form := validation.PostForm{Title: title, Content: body, Category: category}
			if err := validation.Struct(form); err != nil {
				return err
			}

			ctx := cmd.Context()
			me, err := a.api.CurrentUser(ctx)
			if err != nil {
				return err
			}
			post, err := a.api.CreatePost(ctx, client.PostInput{
				Title:    form.Title,
				Content:  form.Content,
				Category: form.Category,
				AuthorID: me.ID,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Created post %d: %s\n", post.ID, post.Title)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title of the post")
	cmd.Flags().StringVarP(&content, "content", "b", "", "Body of the post")
	cmd.Flags().StringVarP(&contentFile, "content-file", "f", "", "Read the body from a file")
	cmd.Flags().StringVarP(&category, "category", "k", "", "Category of the post")
	return cmd
}

func postEditCmd(a *app) *cobra.Command {
	var title, content, category string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title, body or category of a post",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID("post", args[0])
			if err != nil {
				return err
			}

			var form validation.PostEditForm
			flags := cmd.Flags()
			if flags.Changed("title") {
				form.Title = &title
			}
			if flags.Changed("content") {
				form.Content = &content
			}
			if flags.Changed("category") {
				form.Category = &category
			}
			if form.Title == nil && form.Content == nil && form.Category == nil {
				return clierr.New(clierr.Validation, "Nothing to change. Pass --title, --content or --category.", nil)
			}
			if err := validation.Struct(form); err != nil {
				return err
			}

			post, err := a.api.UpdatePost(cmd.Context(), id, client.PostUpdate{
				Title:    form.Title,
				Content:  form.Content,
				Category: form.Category,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Updated post %d: %s\n", post.ID, post.Title)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&content, "content", "b", "", "New body")
	cmd.Flags().StringVarP(&category, "category", "k", "", "New category")
	return cmd
}

func postDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeletePost(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Deleted post %d.\n", id)
			return nil
		}),
	}
}

func postExportCmd(a *app) *cobra.Command {
	var category, hashAlgo string
	var numThreads int

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Save posts and their comments as JSON files with a checksum manifest",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateThreadCount(numThreads); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if !hasher.IsValidHashAlgo(hashAlgo) {
				return clierr.New(clierr.Validation, fmt.Sprintf("Unsupported hash algorithm %q (must be one of: %v)", hashAlgo, hasher.HashAlgorithms), nil)
			}
			if category != "" {
				if err := validation.ValidateCategory(category, validation.Categories); err != nil {
					return clierr.New(clierr.Validation, err.Error(), err)
				}
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("Exporting posts..."),
				progressbar.OptionSetWidth(20),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionClearOnFinish(),
			)
			res, err := operations.ExportPosts(cmd.Context(), a.api, operations.ExportOptions{
				Dir:        args[0],
				Category:   category,
				Threads:    numThreads,
				HashAlgo:   hashAlgo,
				OnPostDone: func() { _ = bar.Add(1) },
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}

			cmd.Printf("Exported %d of %d posts to %s.\n", len(res.Files), res.Total, args[0])
			if res.Manifest != "" {
				cmd.Println("Checksums:", res.Manifest)
			}
			if len(res.Failed) == 0 {
				return nil
			}
			table := newTable(cmd.ErrOrStderr(), []string{"Post ID", "Error"})
			ids := make([]int, 0, len(res.Failed))
			for id := range res.Failed {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			for _, id := range ids {
				table.Append([]string{strconv.Itoa(id), clierr.Classify(res.Failed[id]).Message})
			}
			table.Render()
			return clierr.New(clierr.Internal, fmt.Sprintf("%d posts could not be exported", len(res.Failed)), nil)
		}),
	}

	cmd.Flags().StringVarP(&category, "category", "k", "", "Only export posts in this category")
	cmd.Flags().IntVarP(&numThreads, "threads", "t", 5, "Number of posts to fetch at the same time [1-20]")
	cmd.Flags().StringVarP(&hashAlgo, "hash", "s", "sha256", "Checksum algorithm for the manifest [md5, sha1, sha256, sha512]")
	return cmd
}

// postVerifyCmd needs no session or API, only the files on disk.
func postVerifyCmd() *cobra.Command {
	var hashAlgo string

	cmd := &cobra.Command{
		Use:   "verify <dir>",
		Short: "Check exported files against their checksum manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mismatches, checked, err := operations.VerifyExport(args[0], hashAlgo)
			if err != nil {
				return fail(cmd, clierr.New(clierr.Validation, err.Error(), err))
			}
			if len(mismatches) == 0 {
				cmd.Printf("All %d files match %s.\n", checked, operations.ManifestName(hashAlgo))
				return nil
			}
			table := newTable(cmd.OutOrStdout(), []string{"File", "Expected", "Actual"})
			for _, m := range mismatches {
				got := m.Got
				if m.Err != nil {
					got = "unreadable"
				}
				table.Append([]string{m.File, m.Want, got})
			}
			table.Render()
			return fail(cmd, clierr.New(clierr.Internal, fmt.Sprintf("%d of %d files do not match the manifest", len(mismatches), checked), nil))
		},
	}

	cmd.Flags().StringVarP(&hashAlgo, "hash", "s", "sha256", "Checksum algorithm of the manifest")
	return cmd
}
