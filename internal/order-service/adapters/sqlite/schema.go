// Package sqlite stores orders and the order service's read model of
// customers and restaurants in SQLite.
package sqlite

// Schema is the order service DDL. Money is stored as its two-decimal text
// form so no precision is lost.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL DEFAULT '',
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS restaurants (
    id     TEXT    PRIMARY KEY,
    name   TEXT    NOT NULL,
    active INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS restaurant_products (
    restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
    product_id    TEXT NOT NULL,
    name          TEXT NOT NULL,
    price         TEXT NOT NULL,
    PRIMARY KEY (restaurant_id, product_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id               TEXT PRIMARY KEY,
    customer_id      TEXT NOT NULL,
    restaurant_id    TEXT NOT NULL,
    tracking_id      TEXT NOT NULL UNIQUE,
    saga_id          TEXT NOT NULL,
    price            TEXT NOT NULL,
    status           TEXT NOT NULL,
    -- JSON array of strings.
    failure_messages TEXT NOT NULL DEFAULT '[]',
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    order_id   TEXT    NOT NULL REFERENCES orders(id),
    id         INTEGER NOT NULL,
    product_id TEXT    NOT NULL,
    price      TEXT    NOT NULL,
    quantity   INTEGER NOT NULL,
    sub_total  TEXT    NOT NULL,
    PRIMARY KEY (order_id, id)
);

CREATE TABLE IF NOT EXISTS order_address (
    id          TEXT PRIMARY KEY,
    order_id    TEXT NOT NULL UNIQUE REFERENCES orders(id),
    street      TEXT NOT NULL,
    postal_code TEXT NOT NULL,
    city        TEXT NOT NULL
);
`
