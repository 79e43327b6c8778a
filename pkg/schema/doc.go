/*
Package schema defines the persistence envelope and the normalized story
input format.

The envelope wraps a full playthrough snapshot with versioning and an
integrity checksum so saves survive schema evolution and detect corruption.
The decoding half turns normalized story maps (produced by any authoring
adapter) into validated domain structures.

# Envelope

An Envelope carries a Payload (current node, flags, history, plus optional
checkpoints, branching state and autosave info) together with the schema
version, the engine version that wrote it, a timestamp and a checksum over
the canonical payload encoding. Deserialization can run optimistically or
verify the checksum and fail with a domain.IntegrityError.

# Story input

StoryFromMap decodes the normalized map shape

	{initialNodeId, nodes: [{id, text, choices: [...]}], chapters?: [...]}

into a domain.Story using mapstructure, independent of whether the map came
from JSON, YAML or markdown frontmatter.
*/
package schema
