package mcpserver

// InputFormats describes the text inputs accepted by the generator tools.
const InputFormats = `# ankigen Input Formats

## Poem (generate_poetry)

Plain form: the title on line 1, the author on line 2, one poem line per
following line. Blank poem lines are ignored.

` + "```" + `text
The Road Not Taken
Robert Frost
Two roads diverged in a yellow wood,
And sorry I could not travel both
` + "```" + `

Front matter form: a YAML block with ` + "`title`" + ` and ` + "`author`" + `, then the lines.

` + "```" + `text
---
title: The Road Not Taken
author: Robert Frost
---
Two roads diverged in a yellow wood,
And sorry I could not travel both
` + "```" + `

One card is created per line. Its front shows the previous one or two lines
(or <i>Beginning</i> for the first line); its back is the line itself.

## Sequence (generate_sequence)

The title on line 1, one element per following line, in order. YAML front
matter with a ` + "`title`" + ` may replace the first line.

` + "```" + `text
Planets
Mercury
Venus
Earth
` + "```" + `

Cards cover recall-all, cloze-all, forward, backward, successor and
predecessor questions.

## Words (generate_spelling)

One word per line. Each word becomes a Cloze card with one deletion per
syllable, prefixed by a short AI hint when the text service is enabled.

## Arithmetic (generate_arithmetic)

A list of integer operands and an operation: addition, multiplication or all.
Every ordered pair of operands produces one card per operation.

## Transformation (transform_random_basic)

Notes matched by the query that use the Basic model and have the field are
rephrased by the text service. The field becomes
` + "`original | variant 1 | variant 2`" + ` and the note moves to the RandomBasic
model with its tags unchanged. Notes already containing ` + "`|`" + ` are skipped.
`
