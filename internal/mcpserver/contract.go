package mcpserver

// CatalogFormatContract describes the persisted catalog for LLM consumers.
const CatalogFormatContract = `# Docuflow Catalog Format

Docuflow stores two JSON arrays in its key-value store.

## docuflow_documents

Newest first. Every entry has exactly these fields, in this order:

` + "```" + `json
{"id":"k3j9x0a1b","name":"Lease.pdf","categoryId":"cat-1","type":"pdf","size":"1.2 MB","date":"2024-03-05T09:30:00.000Z"}
` + "```" + `

- ` + "`" + `id` + "`" + ` is a 9-character base-36 string. Uniqueness is not enforced.
- ` + "`" + `categoryId` + "`" + ` should name an existing category. A dangling reference is
  shown under the first category.
- ` + "`" + `type` + "`" + ` and ` + "`" + `size` + "`" + ` are display strings. New documents always get ` + "`" + `pdf` + "`" + ` and ` + "`" + `1.2 MB` + "`" + `;
  no file content is stored.
- ` + "`" + `date` + "`" + ` is ISO-8601 UTC with millisecond precision.

## docuflow_categories

Insertion order. Fields ` + "`" + `id` + "`" + `, ` + "`" + `name` + "`" + `, ` + "`" + `color` + "`" + ` (hex, e.g. ` + "`" + `#ef4444` + "`" + `).
When the entry is missing or empty the defaults are used:

| id | name | color |
|---|---|---|
| cat-1 | Legal | #ef4444 |
| cat-2 | Finance | #10b981 |
| cat-3 | Personal | #ec4899 |
| cat-4 | Work | #06b6d4 |

## Rules

1. Categories cannot be renamed or deleted.
2. Deleting a document needs explicit confirmation (` + "`" + `confirm=true` + "`" + `).
3. Names and colors need not be unique.
`
