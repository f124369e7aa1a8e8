package sqlinline

// QEnsureSchema creates the tables used by the API and the worker. It is idempotent.
const QEnsureSchema = `--sql ad8c263f-a73e-4dbf-9c72-abc08c6a139b
create table if not exists generation_jobs (
    id            uuid primary key,
    requester_id  text        not null default '',
    status        text        not null,
    request_json  jsonb       not null,
    result_json   jsonb,
    error_json    jsonb,
    metadata      jsonb       not null default '{}'::jsonb,
    retry_count   int         not null default 0,
    created_at    timestamptz not null,
    started_at    timestamptz,
    completed_at  timestamptz,
    claimed_at    timestamptz,
    updated_at    timestamptz not null default now()
);

create index if not exists generation_jobs_pending_idx
    on generation_jobs (created_at)
    where status = 'PENDING' and claimed_at is null;

create table if not exists components (
    id            uuid primary key,
    name          text        not null unique,
    category      text        not null,
    description   text        not null default '',
    code          text        not null,
    props         jsonb       not null default '[]'::jsonb,
    examples      jsonb       not null default '[]'::jsonb,
    preview_html  text        not null default '',
    tags          jsonb       not null default '[]'::jsonb,
    generated_by  text        not null,
    job_id        uuid,
    owner_id      text        not null default '',
    validation    jsonb       not null default '{}'::jsonb,
    created_at    timestamptz not null,
    updated_at    timestamptz not null
);

create index if not exists components_category_idx on components (category, created_at desc);

create table if not exists integration_tokens (
    id          uuid primary key,
    provider    text        not null unique,
    token       text        not null,
    properties  jsonb       not null default '{}'::jsonb,
    created_at  timestamptz not null default now(),
    updated_at  timestamptz not null default now()
);
`
