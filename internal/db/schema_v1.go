package db

const initialSchemaV1 = `
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    username    TEXT UNIQUE NOT NULL,
    created     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS content (
    id                      TEXT PRIMARY KEY,
    type                    TEXT NOT NULL CHECK(type IN ('thread', 'comment')),
    thread_id               TEXT NOT NULL,
    parent_id               TEXT,
    author_id               TEXT NOT NULL,
    anonymous               INTEGER NOT NULL DEFAULT 0,
    title                   TEXT,
    body                    TEXT NOT NULL,
    course_id               TEXT NOT NULL DEFAULT '',
    commentable_id          TEXT NOT NULL DEFAULT '',
    group_id                TEXT,
    thread_type             TEXT NOT NULL DEFAULT 'discussion' CHECK(thread_type IN ('discussion', 'question')),
    context                 TEXT NOT NULL DEFAULT 'course' CHECK(context IN ('course', 'standalone')),
    created_at              INTEGER NOT NULL,
    last_activity_at        INTEGER NOT NULL,
    comment_count           INTEGER NOT NULL DEFAULT 0,
    endorsed                INTEGER NOT NULL DEFAULT 0,
    votes                   INTEGER NOT NULL DEFAULT 0,
    body_revision           INTEGER NOT NULL DEFAULT 1,
    mentions                TEXT NOT NULL DEFAULT '[]',
    mention_revision        INTEGER NOT NULL DEFAULT 0,
    mentions_body_revision  INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY (author_id) REFERENCES users(id),
    FOREIGN KEY (thread_id) REFERENCES content(id),
    FOREIGN KEY (parent_id) REFERENCES content(id)
);

CREATE INDEX IF NOT EXISTS idx_content_thread      ON content(thread_id, created_at ASC);
CREATE INDEX IF NOT EXISTS idx_content_parent      ON content(parent_id);
CREATE INDEX IF NOT EXISTS idx_content_course      ON content(course_id) WHERE type = 'thread';
CREATE INDEX IF NOT EXISTS idx_content_commentable ON content(commentable_id) WHERE type = 'thread';
CREATE INDEX IF NOT EXISTS idx_content_created     ON content(created_at DESC) WHERE type = 'thread';
CREATE INDEX IF NOT EXISTS idx_content_activity    ON content(last_activity_at DESC) WHERE type = 'thread';

CREATE TABLE IF NOT EXISTS abuse_flags (
    content_id  TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    created     INTEGER NOT NULL,
    PRIMARY KEY (content_id, user_id),
    FOREIGN KEY (content_id) REFERENCES content(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS read_states (
    user_id     TEXT NOT NULL,
    thread_id   TEXT NOT NULL,
    last_read   INTEGER NOT NULL,
    PRIMARY KEY (user_id, thread_id),
    FOREIGN KEY (user_id)   REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (thread_id) REFERENCES content(id) ON DELETE CASCADE
);

CREATE VIRTUAL TABLE IF NOT EXISTS content_fts USING fts5(
    id UNINDEXED,
    title,
    body,
    content='content',
    content_rowid='rowid',
    tokenize='unicode61'
);

CREATE VIRTUAL TABLE IF NOT EXISTS content_vocab USING fts5vocab(content_fts, row);

CREATE TRIGGER IF NOT EXISTS content_fts_insert AFTER INSERT ON content BEGIN
    INSERT INTO content_fts(rowid, id, title, body)
    VALUES (new.rowid, new.id, new.title, new.body);
END;

CREATE TRIGGER IF NOT EXISTS content_fts_delete AFTER DELETE ON content BEGIN
    INSERT INTO content_fts(content_fts, rowid, id, title, body)
    VALUES ('delete', old.rowid, old.id, old.title, old.body);
END;

CREATE TRIGGER IF NOT EXISTS content_fts_update AFTER UPDATE OF title, body ON content BEGIN
    INSERT INTO content_fts(content_fts, rowid, id, title, body)
    VALUES ('delete', old.rowid, old.id, old.title, old.body);
    INSERT INTO content_fts(rowid, id, title, body)
    VALUES (new.rowid, new.id, new.title, new.body);
END;
`
