// Postguard is a local CLI that flags privacy risks in a social media post
// before it is published.
//
// It sends the draft to an LLM classifier, highlights the exact phrases that
// expose personal information, and suggests safer alternatives. In watch
// mode it re-checks the draft on every save, reusing earlier results when an
// edit does not meaningfully change the text.
//
// Usage:
//
//	postguard check draft.txt          # check a file
//	echo "..." | postguard check       # check stdin
//	postguard watch draft.txt          # re-check on every save
//	postguard settings set strictness strict
//	postguard config set provider anthropic
package main
