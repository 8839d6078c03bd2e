package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE personas (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				style VARCHAR(255) NOT NULL,
				color VARCHAR(32),
				initial VARCHAR(8),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE persona_prompts (
				id UUID PRIMARY KEY,
				persona_id UUID NOT NULL REFERENCES personas(id) ON DELETE CASCADE,
				version INT NOT NULL,
				content TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (persona_id, version)
			);

			CREATE INDEX idx_persona_prompts_persona_id ON persona_prompts(persona_id);
			-- At most one active prompt version per persona
			CREATE UNIQUE INDEX idx_persona_prompts_active ON persona_prompts(persona_id) WHERE active;

			CREATE TABLE threads (
				id UUID PRIMARY KEY,
				kind VARCHAR(32) NOT NULL CHECK (kind IN ('debate', 'question', 'commentary')),
				topic TEXT,
				source_title TEXT,
				source_excerpt TEXT,
				question TEXT,
				length_tier VARCHAR(16) NOT NULL,
				status VARCHAR(32) NOT NULL CHECK (status IN ('pending', 'in-progress', 'complete')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_threads_status ON threads(status);
			CREATE INDEX idx_threads_created_at ON threads(created_at);

			CREATE TABLE thread_participants (
				thread_id UUID NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
				persona_id UUID NOT NULL REFERENCES personas(id),
				slot INT NOT NULL,
				rebuttal_of UUID,
				PRIMARY KEY (thread_id, persona_id),
				UNIQUE (thread_id, slot)
			);

			CREATE TABLE contributions (
				id UUID PRIMARY KEY,
				thread_id UUID NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
				persona_id UUID NOT NULL REFERENCES personas(id),
				phase VARCHAR(32) NOT NULL,
				slot INT NOT NULL,
				attempt_id UUID NOT NULL,
				body TEXT,
				points JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (thread_id, persona_id, phase)
			);

			CREATE INDEX idx_contributions_thread_id ON contributions(thread_id);

			CREATE TABLE syntheses (
				id UUID PRIMARY KEY,
				thread_id UUID NOT NULL UNIQUE REFERENCES threads(id) ON DELETE CASCADE,
				tensions JSONB,
				agreements JSONB,
				takeaways JSONB,
				attempt_id UUID,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE generation_attempts (
				id UUID PRIMARY KEY,
				thread_id UUID NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
				persona_id UUID,
				prompt_id UUID,
				template_key VARCHAR(64) NOT NULL,
				phase VARCHAR(32) NOT NULL,
				attempt_number INT NOT NULL,
				status VARCHAR(32) NOT NULL CHECK (status IN ('generated', 'rejected')),
				fail_reason VARCHAR(32),
				fail_detail TEXT,
				raw_text TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_generation_attempts_thread_id ON generation_attempts(thread_id);
			CREATE INDEX idx_generation_attempts_status ON generation_attempts(status);
		`,
	}
}
