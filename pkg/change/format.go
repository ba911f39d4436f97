package change

// FormatDescription returns a description of the JSON change-batch format,
// suitable for embedding in a prompt so an upstream generator produces
// batches this module can apply.
func FormatDescription() string {
	return `The applydir tool processes code changes specified in a JSON format to apply
modifications, creations, or deletions to files in a codebase. The JSON must
adhere to the following structure:

1. Top-Level Structure:
   - The JSON object must contain a key "file_entries", a non-empty array of
     objects. Each object describes the changes for a single file.
   - An optional "message" string may be attached; it is passed through to
     the caller's version-control layer as a commit description.

2. File Entry Structure:
   - "file": the file path, relative to the base directory. Must be non-empty
     and must not point outside the base directory.
   - "action": one of:
     - "replace_lines": replace specific lines in an existing file. Multiple
       changes per file are allowed.
     - "create_file": create a new file with the given content.
     - "delete_file": delete an existing file. "changes" must be empty ([]),
       and the file must exist.
   - "changes": an array of change objects (empty for "delete_file").

3. Change Object Structure (for "replace_lines" and "create_file"):
   - "original_lines": for "replace_lines", the lines to locate in the
     existing file; must be non-empty and contain enough lines to be uniquely
     identifiable within the file. For "create_file" it must be empty ([]).
   - "changed_lines": the new lines to insert. Must be non-empty for both
     "replace_lines" and "create_file".

4. Constraints:
   - File paths must resolve inside the base directory.
   - Non-ASCII characters in changed lines may trigger errors or warnings
     depending on configuration (for example, error for .py files, ignore
     for .md files).
   - Inaccurate "original_lines" lead to no_match or multiple_matches
     results; include surrounding context lines to disambiguate.

5. Example:

{
  "file_entries": [
    {
      "file": "src/main.py",
      "action": "replace_lines",
      "changes": [
        {
          "original_lines": ["print('Hello')"],
          "changed_lines": ["print('Hello World')"]
        },
        {
          "original_lines": ["def old_func():", "    pass"],
          "changed_lines": ["def updated_func():", "    return True"]
        }
      ]
    },
    {
      "file": "src/new.py",
      "action": "create_file",
      "changes": [
        {
          "original_lines": [],
          "changed_lines": ["def new_func():", "    pass"]
        }
      ]
    },
    {
      "file": "src/old.py",
      "action": "delete_file",
      "changes": []
    }
  ],
  "message": "Rename old_func and add new module"
}
`
}
