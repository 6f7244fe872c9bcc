// Package vision grades page screenshots with a vision-capable
// chat-completion API. It prepares images to fit provider limits, builds a
// deterministic UI/UX grading prompt, parses the model's JSON verdict, and
// computes a weighted quality score.
package vision
