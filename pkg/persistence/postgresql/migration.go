package postgresql

// migrations returns the ordered schema migrations for the flow store.
// Graph content is stored as JSONB documents: the pipeline reads and writes
// whole flows, it never queries inside groups or edges.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workspaces (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				plan TEXT NOT NULL DEFAULT 'free',
				is_verified BOOLEAN NOT NULL DEFAULT FALSE,
				is_suspended BOOLEAN NOT NULL DEFAULT FALSE,
				is_past_due BOOLEAN NOT NULL DEFAULT FALSE,
				members JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS flows (
				id TEXT PRIMARY KEY,
				workspace_id TEXT NOT NULL REFERENCES workspaces(id),
				name TEXT NOT NULL,
				version INTEGER NOT NULL,
				groups JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				variables JSONB NOT NULL DEFAULT '[]',
				events JSONB,
				settings JSONB NOT NULL DEFAULT '{}',
				theme JSONB NOT NULL DEFAULT '{}',
				risk_level INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_flows_workspace_id ON flows(workspace_id);

			CREATE TABLE IF NOT EXISTS published_flows (
				id TEXT PRIMARY KEY,
				flow_id TEXT NOT NULL UNIQUE REFERENCES flows(id) ON DELETE CASCADE,
				version INTEGER NOT NULL,
				groups JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				variables JSONB NOT NULL DEFAULT '[]',
				events JSONB,
				settings JSONB NOT NULL DEFAULT '{}',
				theme JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
		`,
	}
}
