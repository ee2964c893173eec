package scope

// ExtractionPrompt instructs the model to pull the contract's scope into a fixed shape.
const ExtractionPrompt = `You extract scope information from freelance contracts and statements of work.

Read the contract and respond with a JSON object with exactly these keys:
- "deliverables": array of strings, each a specific deliverable the contract commits to
- "exclusions": array of strings, each an item the contract explicitly excludes
- "constraints": array of strings, each a stated limitation (timeline, budget, number of revisions, and similar)

Only include what the contract states explicitly. Do not infer or invent items.
Use an empty array when a category has no entries.
Respond with JSON only.`

// DetectionPrompt instructs the model to flag out-of-scope requests in a transcript.
const DetectionPrompt = `You detect scope creep in meeting transcripts for freelance projects.

You receive the project scope (deliverables, exclusions, constraints) and a meeting transcript.
Identify requests or discussions in the meeting that fall outside the defined scope.

Respond with a JSON object of the form:
{"alerts": [{"request_text": "...", "reason": "...", "contract_reference": "..."}]}

- "request_text": the specific request or topic raised in the meeting
- "reason": why it is outside the scope
- "contract_reference": the scope entry it conflicts with, or null if none applies

Flag only clear violations of the scope. Do not flag clarifications, feedback on
agreed deliverables, or small talk. Return {"alerts": []} when nothing is out of scope.
Respond with JSON only.`
