package mcpserver

// SeedBundleContract describes the canonical seed bundle layout that
// LLM consumers should follow when preparing pre-made content drops.
const SeedBundleContract = `# Get Lost Seed Bundle Contract

Every seed bundle dropped into the portal MUST follow this structure.

## Layout

` + "```" + `
my-seed-bundle/
  manifest.yaml        # REQUIRED – bundle metadata
  report.html          # REQUIRED – the content document (first .html/.htm found is used)
  cover.png            # any media the document references, next to it
  media/clip.mp4
` + "```" + `

## manifest.yaml

` + "```" + `yaml
title: Beach Read                   # REQUIRED – display title, also a match candidate
slug: beach-read                    # OPTIONAL – URL slug, also a match candidate
kind: report                        # OPTIONAL – report (default), marketing_asset, book_cover, landing_page
upload_filenames:                   # OPTIONAL – exact filenames authors are expected to upload
  - BeachRead.pdf
  - beach-read-final.docx
status: ready                       # OPTIONAL – defaults to ready
` + "```" + `

## Rules

1. **manifest.yaml is mandatory.** A directory without it is ignored.
2. **title is required.** It doubles as a filename match candidate, so keep it
   close to the book title authors will use in their upload filenames.
3. **upload_filenames** should list the real filenames authors send. Matching is
   forgiving (case, separators, stop words like "final" or "draft" are ignored),
   but exact names give the strongest signal.
4. **Media paths are relative.** Images referenced by the HTML are embedded as
   data URIs during ingestion; video files are copied into hosted storage and
   their references rewritten. Absolute URLs are left untouched.
5. **One document per bundle.** Ship one HTML file; split multi-document drops
   into separate bundles.
6. The bundle directory is **deleted after successful ingestion**. Failed
   bundles stay in the drop directory for inspection.
`
