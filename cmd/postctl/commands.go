package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"postboard/internal/client"
)

func (a *app) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.askMissing(&username, "Username: ", &password, "Password: "); err != nil {
				return err
			}
			session, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := a.saveToken(session.Token); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", session.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	var username, password, registerPassword string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.askMissing(&username, "Username: ", &password, "Password: "); err != nil {
				return err
			}
			user, err := a.client.Register(cmd.Context(), username, password, registerPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&registerPassword, "register-password", "", "registration secret, when the server requires one")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the saved session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.client.Token() != "" {
				err := a.client.Logout(cmd.Context())
				if err != nil && client.StatusCode(err) != http.StatusUnauthorized {
					return err
				}
			}
			if err := a.clearToken(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your posts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.List(cmd.Context()); err != nil {
				return a.rejected()
			}
			renderList(a.out, a.store.State())
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Get(cmd.Context(), args[0]); err != nil {
				return a.rejected()
			}
			posts := a.store.State().Posts
			if len(posts) == 0 {
				return fmt.Errorf("post %s not found", args[0])
			}
			renderPost(a.out, posts[0])
			return nil
		},
	}
}

type formFlags struct {
	title     string
	body      string
	imageURL  string
	imageFile string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&f.body, "body", "b", "", "post body")
	cmd.Flags().StringVarP(&f.imageURL, "image", "i", "", "image URL")
	cmd.Flags().StringVar(&f.imageFile, "image-file", "", "upload this file and use its URL as the image")
	cmd.MarkFlagsMutuallyExclusive("image", "image-file")
}

// resolveImage uploads --image-file when given and returns the URL to post.
func (a *app) resolveImage(cmd *cobra.Command, f *formFlags) (string, error) {
	if f.imageFile == "" {
		return f.imageURL, nil
	}
	file, err := os.Open(f.imageFile)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	image, err := a.client.UploadImage(cmd.Context(), f.imageFile, file)
	if err != nil {
		return "", err
	}
	return image.URL, nil
}

func (a *app) createCmd() *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			imageURL, err := a.resolveImage(cmd, &f)
			if err != nil {
				return err
			}
			data := client.PostData{Title: f.title, Body: f.body, ImageURL: imageURL}
			if err := validateForm(data); err != nil {
				return err
			}

			if err := a.store.Create(cmd.Context(), data); err != nil {
				return a.rejected()
			}
			fmt.Fprintln(a.out, "Post created successfully!")
			return a.refresh(cmd)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Edit a post; unset fields keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := a.store.Get(cmd.Context(), id); err != nil {
				return a.rejected()
			}
			posts := a.store.State().Posts
			if len(posts) == 0 {
				return fmt.Errorf("post %s not found", id)
			}

			current := posts[0]
			data := client.PostData{Title: current.Title, Body: current.Body, ImageURL: current.ImageURL}
			if cmd.Flags().Changed("title") {
				data.Title = f.title
			}
			if cmd.Flags().Changed("body") {
				data.Body = f.body
			}
			if cmd.Flags().Changed("image") || f.imageFile != "" {
				imageURL, err := a.resolveImage(cmd, &f)
				if err != nil {
					return err
				}
				data.ImageURL = imageURL
			}
			if err := validateForm(data); err != nil {
				return err
			}

			if err := a.store.Update(cmd.Context(), id, data); err != nil {
				return a.rejected()
			}
			fmt.Fprintln(a.out, "Post updated successfully!")
			return a.refresh(cmd)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <post-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a post",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				answer, err := a.prompt(fmt.Sprintf("Delete post %s? This action cannot be undone. [y/N]: ", id))
				if err != nil {
					return err
				}
				if !confirmed(answer) {
					fmt.Fprintln(a.out, "Cancelled")
					return nil
				}
			}

			if err := a.store.Delete(cmd.Context(), id); err != nil {
				return a.rejected()
			}
			fmt.Fprintln(a.out, "Post deleted successfully!")
			return a.refresh(cmd)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer file.Close()

			image, err := a.client.UploadImage(cmd.Context(), args[0], file)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, image.URL)
			return nil
		},
	}
}

// refresh re-fetches the list after a mutation and prints it.
func (a *app) refresh(cmd *cobra.Command) error {
	if err := a.store.List(cmd.Context()); err != nil {
		return a.rejected()
	}
	renderList(a.out, a.store.State())
	return nil
}

func (a *app) askMissing(first *string, firstLabel string, second *string, secondLabel string) error {
	var err error
	if *first == "" {
		if *first, err = a.prompt(firstLabel); err != nil {
			return err
		}
	}
	if *second == "" {
		if *second, err = a.prompt(secondLabel); err != nil {
			return err
		}
	}
	return nil
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
