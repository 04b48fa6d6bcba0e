package cmd

import (
	"strconv"

	"github.com/habedi/folio/client"
	"github.com/habedi/folio/pkg/validation"
	"github.com/spf13/cobra"
)

func commentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Read and manage comments",
	}
	cmd.AddCommand(
		commentListCmd(a),
		commentAddCmd(a),
		commentEditCmd(a),
		commentDeleteCmd(a),
	)
	return cmd
}

func commentListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <post-id>",
		Short: "List the comments on a post",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			comments, err := a.api.ListComments(cmd.Context(), postID)
			if err != nil {
				return err
			}
			if len(comments) == 0 {
				cmd.Println("No comments yet.")
				return nil
			}
			table := newTable(cmd.OutOrStdout(), []string{"ID", "Author", "Comment", "Created"})
			for _, c := range comments {
				table.Append([]string{strconv.Itoa(c.ID), c.AuthorName, oneLine(c.Text, 80), c.CreatedAt})
			}
			table.Render()
			return nil
		}),
	}
}

func commentAddCmd(a *app) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "add <post-id>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			form := validation.CommentForm{Text: text}
			if err := validation.Struct(form); err != nil {
				return err
			}

			ctx := cmd.Context()
			me, err := a.api.CurrentUser(ctx)
			if err != nil {
				return err
			}
			c, err := a.api.CreateComment(ctx, client.CommentInput{Text: form.Text, AuthorID: me.ID, PostID: postID})
			if err != nil {
				return err
			}
			cmd.Printf("Added comment %d to post %d.\n", c.ID, postID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&text, "text", "m", "", "Text of the comment")
	return cmd
}

func commentEditCmd(a *app) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the text of a comment",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID("comment", args[0])
			if err != nil {
				return err
			}
			form := validation.CommentForm{Text: text}
			if err := validation.Struct(form); err != nil {
				return err
			}
			if err := a.api.UpdateComment(cmd.Context(), id, client.CommentUpdate{Text: form.Text}); err != nil {
				return err
			}
			cmd.Printf("Updated comment %d.\n", id)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&text, "text", "m", "", "New text of the comment")
	return cmd
}

func commentDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID("comment", args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteComment(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Deleted comment %d.\n", id)
			return nil
		}),
	}
}
