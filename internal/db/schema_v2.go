package db

const notificationsSchemaV2 = `
CREATE TABLE IF NOT EXISTS notifications (
    id           TEXT PRIMARY KEY,
    type         TEXT NOT NULL CHECK(type IN ('at_user')),
    info         TEXT NOT NULL,
    actor_id     TEXT,
    target_id    TEXT NOT NULL,
    target_type  TEXT NOT NULL CHECK(target_type IN ('thread', 'comment')),
    created      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_receivers (
    notification_id  TEXT NOT NULL,
    user_id          TEXT NOT NULL,
    PRIMARY KEY (notification_id, user_id),
    FOREIGN KEY (notification_id) REFERENCES notifications(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id)         REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_notif_receiver ON notification_receivers(user_id);
CREATE INDEX IF NOT EXISTS idx_notif_created  ON notifications(created DESC);
`
