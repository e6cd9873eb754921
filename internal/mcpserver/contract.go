package mcpserver

// SyntaxReference describes the link syntax recognized in notes and how each
// form is rewritten. Served as a resource and a tool for LLM consumers.
const SyntaxReference = `# foamlinks Syntax Reference

Notes are Markdown files (` + "`" + `.md` + "`" + ` or ` + "`" + `.markdown` + "`" + `). Optional YAML frontmatter
between ` + "`" + `---` + "`" + ` fences is kept verbatim; only the body is rewritten.

## Recognized forms

- Wikilink: ` + "`" + `[[note]]` + "`" + ` becomes ` + "`" + `[note]` + "`" + `
- Aliased wikilink: ` + "`" + `[[note|shown text]]` + "`" + ` becomes ` + "`" + `[shown text](relative/path)` + "`" + `
- Embed: ` + "`" + `![[image]]` + "`" + ` becomes ` + "`" + `![image]` + "`" + `
- Tag: ` + "`" + `#project-x` + "`" + ` becomes ` + "`" + `[#project-x]` + "`" + `
- Mention: ` + "`" + `@alice` + "`" + ` becomes ` + "`" + `[@alice]` + "`" + `

Tags and mentions start with a letter or digit and continue with letters, digits,
underscores or hyphens. They must follow the start of a line or a character that is
neither a word character nor the sigil itself, so ` + "`" + `user@example.com` + "`" + ` and
` + "`" + `page#anchor` + "`" + ` are left alone.

## Resolution

- A wikilink target matches a note whose file name without extension equals the
  target, or whose frontmatter ` + "`" + `slug` + "`" + ` equals it. The first note in path order wins.
- The link destination is the note path relative to the linking note, without extension.
- The link title is the frontmatter ` + "`" + `title` + "`" + `, else the first ` + "`" + `# ` + "`" + ` heading, else the
  file name with hyphens and underscores turned into spaces.
- Unmatched targets get a placeholder definition pointing at the literal target.
- Tags link to ` + "`" + `tags/<name>` + "`" + ` and mentions to ` + "`" + `mentions/<name>` + "`" + ` unless base URLs
  are configured.

## Definitions block

One definition per distinct reference is appended after the body:

` + "```" + `markdown
[//begin]: # "Autogenerated link references for markdown compatibility"
[note]: notes/note "Note Title"
[#project-x]: tags/project-x "Tag: project-x"
[//end]: # "Autogenerated link references"
` + "```" + `
`
