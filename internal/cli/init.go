package cli

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/deliverybot/discord-tracker/internal/githubctx"
	"github.com/spf13/cobra"
)

// placeholder fills PR fields that could not be determined from flags or
// the GitHub environment; init still works, just with less context shown
const placeholder = "Unknown"

var (
	initPRNumber   string
	initPRTitle    string
	initAuthor     string
	initRepository string
	initBranch     string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Start tracking a pipeline and send the initial Discord message",
	Long: `Creates fresh pipeline state and posts the "pipeline started" message.
Flags left empty are filled from the GitHub Actions environment and, when a
token is available, the GitHub API. A failed send is not fatal: the pipeline
is still tracked locally.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPRNumber, "pr-number", "", "pull request number")
	initCmd.Flags().StringVar(&initPRTitle, "pr-title", "", "pull request title")
	initCmd.Flags().StringVar(&initAuthor, "author", "", "PR author username")
	initCmd.Flags().StringVar(&initRepository, "repository", "", "repository name (owner/repo)")
	initCmd.Flags().StringVar(&initBranch, "branch", "", "branch name")
}

func runInit(cmd *cobra.Command, args []string) error {
	tr, err := newTracker()
	if err != nil {
		return err
	}

	prNumber := parsePRNumber(initPRNumber)
	title, author, repository, branch := initPRTitle, initAuthor, initRepository, initBranch
	prNumber, title, author, repository, branch = enrichFromGitHub(prNumber, title, author, repository, branch)

	messageID, err := tr.Init(prNumber, title, author, repository, branch)
	if err != nil {
		return err
	}

	emitSuccess()
	if messageID != "" {
		setOutput("message-id", messageID)
	}
	return nil
}

// parsePRNumber tolerates a non-numeric PR number rather than failing the
// pipeline over display metadata
func parsePRNumber(value string) int {
	if value == "" {
		return 0
	}
	number, err := strconv.Atoi(value)
	if err != nil || number < 0 {
		log.Printf("Warning: ignoring non-numeric pr-number %q", value)
		return 0
	}
	return number
}

// enrichFromGitHub fills empty PR fields from the Actions runner
// environment, then from the GitHub API when the title or author are still
// missing. Every failure degrades to placeholders.
func enrichFromGitHub(prNumber int, title, author, repository, branch string) (int, string, string, string, string) {
	ghctx := githubctx.FromEnv()

	if repository == "" {
		repository = ghctx.Repository
	}
	if branch == "" {
		branch = ghctx.HeadRef
	}
	if author == "" {
		author = ghctx.Actor
	}
	if prNumber == 0 {
		prNumber = ghctx.PRNumber
	}

	if title == "" || author == "" || branch == "" {
		ghctx.PRNumber = prNumber
		ghctx.Repository = repository
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if pr, err := ghctx.ResolvePR(ctx); err != nil {
			log.Printf("Warning: could not resolve PR metadata from GitHub: %v", err)
		} else {
			if title == "" {
				title = pr.Title
			}
			if author == "" {
				author = pr.Author
			}
			if branch == "" {
				branch = pr.Branch
			}
		}
	}

	if title == "" {
		title = placeholder
	}
	if author == "" {
		author = placeholder
	}
	if repository == "" {
		repository = placeholder
	}
	if branch == "" {
		branch = placeholder
	}
	return prNumber, title, author, repository, branch
}
