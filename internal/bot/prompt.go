package bot

import "fmt"

// Task prompts handed to the agent. Each one tells the agent where the
// checkout lives and, for artifact-producing stages, where to leave the
// resulting number so the launcher can pick it up.

func investigatePrompt(request string) string {
	return fmt.Sprintf(`You are working in a session workspace. The repository is checked out in the repo/ directory.

Investigate the following request and draft an implementation plan. Open a GitHub issue describing the plan with "gh issue create", then write the bare issue number (digits only) to a file named issue_number in the current directory.

Request: %s`, request)
}

func refinePlanPrompt(issue string) string {
	return fmt.Sprintf(`Continue working on this session. The repository is checked out in the repo/ directory.

New human feedback has been posted on issue #%s. Read the issue and its comments with "gh issue view %s --comments", then revise the plan and post the updated plan as a comment on the issue.`, issue, issue)
}

func implementPrompt(issue string) string {
	return fmt.Sprintf(`You are working in a session workspace. The repository is checked out in the repo/ directory.

Implement the plan from issue #%s. Read it with "gh issue view %s --comments", make the changes on a branch, commit, and open a pull request with "gh pr create" referencing the issue. Then write the bare pull request number (digits only) to a file named pr_number in the current directory.`, issue, issue)
}

func revisePrompt(pr string) string {
	return fmt.Sprintf(`Continue working on this session. The repository is checked out in the repo/ directory.

Review feedback has been posted on pull request #%s. Read it with "gh pr view %s --comments", address the feedback, and push the revisions to the existing branch.`, pr, pr)
}
